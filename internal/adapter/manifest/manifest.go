package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jgivc/batchfetch/internal/common"
	"github.com/jgivc/batchfetch/internal/entity"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

type document struct {
	Folder []folder `json:"Folder" yaml:"Folder"`
}

type folder struct {
	Name string `json:"Name" yaml:"Name"`
	File []file `json:"File" yaml:"File"`
}

type file struct {
	Data struct {
		General struct {
			Name string `json:"Name" yaml:"Name"`
		} `json:"General" yaml:"General"`
		URL struct {
			Download string `json:"Download" yaml:"Download"`
		} `json:"Url" yaml:"Url"`
	} `json:"Data" yaml:"Data"`
}

type manifestReader struct {
	fs  afero.Fs
	log *slog.Logger
}

func NewManifestReader(log *slog.Logger) *manifestReader {
	return NewManifestReaderWithFS(afero.NewOsFs(), log)
}

func NewManifestReaderWithFS(fs afero.Fs, log *slog.Logger) *manifestReader {
	return &manifestReader{
		fs:  fs,
		log: log.With(slog.String("item", "ManifestReader")),
	}
}

// Read decodes the manifest at path. Only the first document of the top-level list is used.
func (r *manifestReader) Read(path string) ([]*entity.Folder, error) {
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrManifestNotFound, path)
		}

		return nil, fmt.Errorf("cannot read manifest %s: %w", path, err)
	}

	var docs []document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &docs)
	default:
		err = json.Unmarshal(data, &docs)
	}

	if err != nil {
		return nil, fmt.Errorf("cannot parse manifest %s: %w", path, err)
	}

	if len(docs) < 1 || len(docs[0].Folder) < 1 {
		return nil, common.ErrNoFolders
	}

	folders := make([]*entity.Folder, 0, len(docs[0].Folder))
	for _, f := range docs[0].Folder {
		files := make([]*entity.File, 0, len(f.File))
		for _, ff := range f.File {
			files = append(files, &entity.File{
				Name: ff.Data.General.Name,
				URL:  ff.Data.URL.Download,
			})
		}

		folders = append(folders, &entity.Folder{
			Name:  f.Name,
			Files: files,
		})
	}

	r.log.Info("Found folders in manifest", slog.String("path", path), slog.Int("count", len(folders)))

	return folders, nil
}
