package types

import (
	"vitaai.com/prontuario/logger"
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"io/ioutil"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

// AliasExtension adds confirmed key spellings for canonical fields. Files are
// applied in name order and every spelling is appended after the built-in ones.
//
//	fields:
//	  complaint: [motivoConsulta]
//	  procedures: [procedimentos_executados]
type AliasExtension struct {
	Name     string              `json:"name"`
	FilePath string              `json:"file_path"`
	Source   string              `yaml:"source" json:"source"`
	Fields   map[string][]string `yaml:"fields" json:"fields"`
}

func LoadAliasExtensions(dirPath string) ([]AliasExtension, error) {
	vitaLogger := logger.NewLogger("LoadAliasExtensions")

	files, err := ioutil.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	extensionChan := make(chan AliasExtension, len(files))
	errChan := make(chan error, len(files))
	for _, f := range files {
		// Skip dirs and non-yaml files
		if f.IsDir() || !(strings.HasSuffix(f.Name(), ".yaml") || strings.HasSuffix(f.Name(), ".yml")) {
			continue
		}

		wg.Add(1)
		go func(file os.FileInfo) {
			defer wg.Done()
			ext := AliasExtension{
				Name:     strings.TrimSuffix(strings.TrimSuffix(file.Name(), ".yaml"), ".yml"),
				FilePath: path.Join(dirPath, file.Name()),
			}
			buf, err := ioutil.ReadFile(ext.FilePath)
			if err != nil {
				vitaLogger.Err(err).Str("file", ext.FilePath).Msg("Could not read alias extension")
				errChan <- err
				return
			}
			if err := yaml.Unmarshal(buf, &ext); err != nil {
				vitaLogger.Err(err).Str("file", ext.FilePath).Msg("Could not parse alias extension")
				errChan <- fmt.Errorf("%s: %w", ext.FilePath, err)
				return
			}
			if len(ext.Fields) == 0 {
				errChan <- fmt.Errorf("%s: %w", ext.FilePath, errors.New("alias extension has no fields"))
				return
			}
			extensionChan <- ext
		}(f)
	}

	wg.Wait()
	close(extensionChan)
	close(errChan)

	// any bad file fails the whole load
	if err, ok := <-errChan; ok {
		return nil, err
	}
	extensions := make([]AliasExtension, 0, len(extensionChan))
	for ext := range extensionChan {
		extensions = append(extensions, ext)
	}
	sort.Slice(extensions, func(i, j int) bool {
		return extensions[i].Name < extensions[j].Name
	})
	return extensions, nil
}
