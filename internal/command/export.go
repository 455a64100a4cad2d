package command

import (
	"fmt"

	"github.com/hitomidl/hitomidl/internal/export"
	"github.com/hitomidl/hitomidl/internal/model"
)

// ExportPDF implements the export_pdf command.
func (a *App) ExportPDF(comic model.Comic, notify export.Notifier) error {
	if err := export.PDF(comic, a.downloadDir(), a.exportDir(), notify); err != nil {
		return fmt.Errorf("export comic %d to pdf: %w", comic.ID, err)
	}
	return nil
}

// ExportCBZ implements the export_cbz command.
func (a *App) ExportCBZ(comic model.Comic, notify export.Notifier) error {
	if err := export.CBZ(comic, a.downloadDir(), a.exportDir(), notify); err != nil {
		return fmt.Errorf("export comic %d to cbz: %w", comic.ID, err)
	}
	return nil
}
