package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"github.com/hitomidl/hitomidl/internal/hitomierr"
	"github.com/hitomidl/hitomidl/internal/model"
)

// CBZ writes <downloadDir>/<dirName>/*.{webp,avif} plus a ComicInfo.xml
// (Kavita schema) into a ZIP at <exportDir>/<dirName>.cbz. The XML tree
// is built with beevik/etree rather than encoding/xml struct tags, since
// Kavita's ComicInfo.xml wants explicit element ordering the struct-tag
// encoder doesn't give direct control over.
func CBZ(comic model.Comic, downloadDir, exportDir string, notify Notifier) (err error) {
	id := newEventUUID()
	notify.Notify(Event{Format: model.ExportFormatCBZ, Kind: model.ExportEventStart, UUID: id, Title: comic.Title})
	defer func() {
		if err != nil {
			notify.Notify(Event{Format: model.ExportFormatCBZ, Kind: model.ExportEventError, UUID: id, Title: comic.Title, Error: err.Error()})
		} else {
			notify.Notify(Event{Format: model.ExportFormatCBZ, Kind: model.ExportEventEnd, UUID: id, Title: comic.Title})
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

	if mkErr := mkdirAllExport(exportDir); mkErr != nil {
		return mkErr
	}

	outPath := filepath.Join(exportDir, comic.DirName+".cbz")
	out, createErr := os.Create(outPath)
	if createErr != nil {
		return fmt.Errorf("%w: failed to create %s: %s", hitomierr.ErrFilesystem, outPath, createErr)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	defer zw.Close()

	infoWriter, compErr := zw.Create("ComicInfo.xml")
	if compErr != nil {
		return fmt.Errorf("%w: failed to create ComicInfo.xml entry: %s", hitomierr.ErrFilesystem, compErr)
	}
	if _, werr := comicInfoXML(comic).WriteTo(infoWriter); werr != nil {
		return fmt.Errorf("%w: failed to write ComicInfo.xml: %s", hitomierr.ErrFilesystem, werr)
	}

	for _, path := range paths {
		if err := copyIntoZip(zw, path); err != nil {
			return err
		}
	}

	return nil
}

func copyIntoZip(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: failed to open %s: %s", hitomierr.ErrFilesystem, path, err)
	}
	defer f.Close()

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("%w: failed to create archive entry for %s: %s", hitomierr.ErrFilesystem, path, err)
	}

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("%w: failed to copy %s into archive: %s", hitomierr.ErrFilesystem, path, err)
	}
	return nil
}

// comicInfoXML builds the Kavita ComicInfo.xml element tree.
func comicInfoXML(comic model.Comic) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	root := doc.CreateElement("ComicInfo")

	root.CreateElement("Manga").SetText("Yes")
	root.CreateElement("Series").SetText(comic.Title)
	root.CreateElement("Writer").SetText(strings.Join(comic.Artists, ", "))
	root.CreateElement("Publisher").SetText("Hitomi")
	root.CreateElement("Genre").SetText(comic.Type)
	root.CreateElement("Tags").SetText(strings.Join(comic.Tags, ", "))
	root.CreateElement("Number").SetText("1")
	root.CreateElement("Format").SetText("Special")
	root.CreateElement("PageCount").SetText(fmt.Sprintf("%d", len(comic.Files)))
	root.CreateElement("Count").SetText("1")

	doc.Indent(2)
	return doc
}
