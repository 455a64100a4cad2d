package export

import (
	"fmt"
	"path/filepath"

	"github.com/signintech/gopdf"

	"github.com/hitomidl/hitomidl/internal/hitomierr"
	"github.com/hitomidl/hitomidl/internal/model"
)

// PDF writes <downloadDir>/<dirName>/*.{webp,avif} into a single PDF at
// <exportDir>/<dirName>.pdf, one page per image, each page's MediaBox
// matching that image's pixel dimensions.
func PDF(comic model.Comic, downloadDir, exportDir string, notify Notifier) (err error) {
	id := newEventUUID()
	notify.Notify(Event{Format: model.ExportFormatPDF, Kind: model.ExportEventStart, UUID: id, Title: comic.Title})
	defer func() {
		if err != nil {
			notify.Notify(Event{Format: model.ExportFormatPDF, Kind: model.ExportEventError, UUID: id, Title: comic.Title, Error: err.Error()})
		} else {
			notify.Notify(Event{Format: model.ExportFormatPDF, Kind: model.ExportEventEnd, UUID: id, Title: comic.Title})
		}
	}()

	srcDir := filepath.Join(downloadDir, comic.DirName)
	paths, listErr := comicImagePaths(srcDir)
	if listErr != nil {
		return listErr
	}
	if len(paths) == 0 {
		return fmt.Errorf("%w: %s contains no images to export", hitomierr.ErrFilesystem, srcDir)
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})

	for _, path := range paths {
		bounds, boundsErr := decodeBounds(path)
		if boundsErr != nil {
			return boundsErr
		}

		rect := &gopdf.Rect{W: float64(bounds.Dx()), H: float64(bounds.Dy())}
		pdf.AddPageWithOption(gopdf.PageOption{PageSize: rect})

		if imgErr := pdf.Image(path, 0, 0, rect); imgErr != nil {
			return fmt.Errorf("%w: failed to place image %s: %s", hitomierr.ErrDecode, path, imgErr)
		}
	}

	if mkErr := mkdirAllExport(exportDir); mkErr != nil {
		return mkErr
	}

	outPath := filepath.Join(exportDir, comic.DirName+".pdf")
	if err := pdf.WritePdf(outPath); err != nil {
		return fmt.Errorf("%w: failed to write %s: %s", hitomierr.ErrFilesystem, outPath, err)
	}

	return nil
}
