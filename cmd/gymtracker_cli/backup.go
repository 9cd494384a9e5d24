package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/2beens/gymtracker/internal/backup"
)

var (
	exportOut              string
	exportDriveCredentials string
	exportDriveFolder      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every persisted blob into a backup file",
	Long: `Export writes the backup to --out, "-" for stdout, or to a file named
after the export time. With --drive-credentials the backup is also
uploaded to the --drive-folder google drive folder.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun(cmd)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the persisted blobs with the ones of a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return importRun(cmd, args[0])
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, \"-\" for stdout")
	exportCmd.Flags().StringVar(&exportDriveCredentials, "drive-credentials", "", "google service account credentials json")
	exportCmd.Flags().StringVar(&exportDriveFolder, "drive-folder", "gymtracker-backups", "google drive folder name")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func exportRun(cmd *cobra.Command) error {
	ctx := cmd.Context()
	d, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	env, err := backup.Export(ctx, d.storage.Backend, time.Now())
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}

	switch exportOut {
	case "-":
		if _, err := ui.Out.Write(append(payload, '\n')); err != nil {
			return err
		}
	default:
		out := exportOut
		if out == "" {
			out = backup.BackupFileName(env.ExportedAt)
		}
		if err := os.WriteFile(out, payload, 0o600); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
		ui.Success("backup of %d blobs written to %s", len(env.Blobs), cyan(out))
	}

	if exportDriveCredentials == "" {
		return nil
	}

	credentials, err := os.ReadFile(exportDriveCredentials)
	if err != nil {
		return fmt.Errorf("read drive credentials: %w", err)
	}
	uploader, err := backup.NewDriveUploaderFromCredentials(ctx, exportDriveFolder, credentials)
	if err != nil {
		return err
	}
	fileID, err := uploader.Upload(ctx, env)
	if err != nil {
		return err
	}
	ui.Success("backup uploaded to drive folder %s, file id %s", cyan(exportDriveFolder), fileID)

	return nil
}

func importRun(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	d, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	imported, err := backup.Import(ctx, d.storage.Backend, data)
	if err != nil {
		return err
	}

	if len(imported) == 0 {
		ui.Info("backup holds no known blobs, nothing imported")
		return nil
	}

	keys := make([]string, 0, len(imported))
	for _, key := range imported {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)

	table := ui.Table([]string{"Imported key"})
	for _, key := range keys {
		_ = table.Append([]string{cyan(key)})
	}
	_ = table.Render()
	ui.Info("restart the service or import through its api to pick up the new data")

	return nil
}
