package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	DefaultDriveFolder = "gymtracker-backup"
	folderMimeType     = "application/vnd.google-apps.folder"
)

// DriveUploader stores exported envelopes in a Google Drive folder.
type DriveUploader struct {
	service    *drive.Service
	folderName string
	folderID   string
}

func NewDriveUploader(ctx context.Context, folderName string, opts ...option.ClientOption) (*DriveUploader, error) {
	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve drive client: %w", err)
	}

	if folderName == "" {
		folderName = DefaultDriveFolder
	}

	return &DriveUploader{
		service:    driveService,
		folderName: folderName,
	}, nil
}

// NewDriveUploaderFromCredentials builds an uploader authenticated with a
// service account credentials JSON.
func NewDriveUploaderFromCredentials(ctx context.Context, folderName string, credentialsJSON []byte) (*DriveUploader, error) {
	return NewDriveUploader(ctx, folderName,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(drive.DriveFileScope),
	)
}

func (u *DriveUploader) ensureFolder(ctx context.Context) (string, error) {
	if u.folderID != "" {
		return u.folderID, nil
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", u.folderName, folderMimeType)
	list, err := u.service.Files.List().
		Q(q).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("list drive folders: %w", err)
	}

	if len(list.Files) > 0 {
		u.folderID = list.Files[0].Id
		return u.folderID, nil
	}

	folder, err := u.service.Files.Create(&drive.File{
		Name:     u.folderName,
		MimeType: folderMimeType,
	}).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("create drive folder: %w", err)
	}

	log.Printf("drive backups folder created: %s", folder.Id)
	u.folderID = folder.Id
	return u.folderID, nil
}

// Upload stores env as a JSON file named after its export time and returns
// the drive file id.
func (u *DriveUploader) Upload(ctx context.Context, env *Envelope) (string, error) {
	folderID, err := u.ensureFolder(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}

	file, err := u.service.Files.Create(&drive.File{
		Name:     BackupFileName(env.ExportedAt),
		MimeType: "application/json",
		Parents:  []string{folderID},
	}).
		Media(bytes.NewReader(payload)).
		Fields("id, name").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("upload backup: %w", err)
	}

	return file.Id, nil
}

func BackupFileName(exportedAt time.Time) string {
	return fmt.Sprintf("gymtracker-backup-%s.json", exportedAt.UTC().Format("20060102-150405"))
}
