package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymtracker/internal/backup"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/pkg"
)

type ImportResponse struct {
	ImportedKeys []string `json:"importedKeys"`
}

func (handler *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.backup.export")
	defer span.End()

	env, err := backup.Export(ctx, handler.store.Backend(), time.Now())
	if err != nil {
		writeError(w, "export backup", err)
		return
	}

	envJson, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		log.Errorf("failed to marshal backup: %s", err)
		http.Error(w, "error, export backup failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.BackupFileName(env.ExportedAt)))
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, envJson, http.StatusOK)
}

// HandleImport restores a backup and reloads catalog and session from the
// restored blobs. A malformed backup writes nothing.
func (handler *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.backup.import")
	defer span.End()

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBackupBytes))
	if err != nil {
		log.Errorf("import backup, read body: %s", err)
		http.Error(w, "import backup failed", http.StatusBadRequest)
		return
	}

	keys, err := backup.Import(ctx, handler.store.Backend(), data)
	if err != nil {
		writeError(w, "import backup", err)
		return
	}
	handler.metricsManager.CounterBackupImports.Inc()

	if err := handler.core.Reload(ctx); err != nil {
		writeError(w, "reload after import", err)
		return
	}

	resp := ImportResponse{ImportedKeys: make([]string, 0, len(keys))}
	for _, key := range keys {
		resp.ImportedKeys = append(resp.ImportedKeys, string(key))
	}

	log.Infof("backup imported: %v", resp.ImportedKeys)
	pkg.WriteJSON(w, resp, http.StatusOK)
}
