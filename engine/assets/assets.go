package assets

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/quadbench/engine/assets/loaders"
	"github.com/spaghettifunk/quadbench/engine/core"
	"github.com/spaghettifunk/quadbench/engine/renderer/metadata"
)

const (
	shaderDir  = "shaders"
	textureDir = "textures"
)

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// AssetManager indexes an asset directory and keeps the index current while
// files are added, edited or removed. Names are slash separated and relative
// to the root directory.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	running  bool
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

func (am *AssetManager) Initialize(assetsDir string) error {
	fi, err := os.Stat(assetsDir)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrAssetNotFound, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", core.ErrAssetNotFound, assetsDir)
	}
	am.root = filepath.Clean(assetsDir)

	// Register loaders
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeImage, &loaders.ImageLoader{})

	if err := am.addRecursive(am.root); err != nil {
		return err
	}
	go am.start()
	am.running = true

	core.LogDebug("asset manager indexed %d files under %s", am.Count(), am.root)
	return nil
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset watcher already closed")
	}
	return am.watchRecursive(name)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Count returns the number of indexed assets.
func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Load an asset using the loader registered for its type.
func (am *AssetManager) LoadAsset(name string, params interface{}) (*metadata.Resource, error) {
	am.mutex.Lock()
	asset, exists := am.assets[name]
	if exists {
		asset.LastLoaded = time.Now()
		am.assets[name] = asset
	}
	am.mutex.Unlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrAssetNotFound, name)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %d", asset.Type)
	}

	return loader.Load(filepath.Join(am.root, filepath.FromSlash(asset.Path)), params)
}

// ShaderSource returns the source of shaders/<name>.
func (am *AssetManager) ShaderSource(name string) (string, error) {
	res, err := am.LoadAsset(path.Join(shaderDir, name), nil)
	if err != nil {
		return "", err
	}
	return res.Data.(string), nil
}

// Images lists the indexed images under textures/, sorted by name.
func (am *AssetManager) Images() []string {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	var names []string
	for p, info := range am.assets {
		if info.Type == metadata.ResourceTypeImage && strings.HasPrefix(p, textureDir+"/") {
			names = append(names, strings.TrimPrefix(p, textureDir+"/"))
		}
	}
	sort.Strings(names)
	return names
}

// LoadImage decodes textures/<name> into size x size RGBA8 texture details
// with a full mip chain.
func (am *AssetManager) LoadImage(name string, size uint32) (*metadata.TextureDetails, error) {
	res, err := am.LoadAsset(path.Join(textureDir, name), &loaders.ImageParams{Size: size, Mipmaps: true})
	if err != nil {
		return nil, err
	}
	return res.Data.(*metadata.TextureDetails), nil
}

// Close stops the watcher. The index stays readable.
func (am *AssetManager) Close() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	if !am.running {
		return am.fsnotify.Close()
	}
	close(am.done)
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("unable to watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}
			// A removed directory cannot be told apart from a file, so drop both.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				_ = am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files it finds.
func (am *AssetManager) watchRecursive(root string) error {
	return filepath.Walk(root, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

func (am *AssetManager) name(fullPath string) (string, bool) {
	rel, err := filepath.Rel(am.root, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(fullPath string) {
	name, ok := am.name(fullPath)
	if !ok {
		return
	}
	assetType := determineAssetType(name)
	if assetType == metadata.ResourceTypeNone {
		return
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	if _, known := am.assets[name]; !known {
		core.LogDebug("indexed asset %s", name)
	}
	am.assets[name] = AssetInfo{
		Path: name,
		Type: assetType,
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(fullPath string) {
	name, ok := am.name(fullPath)
	if !ok {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, name)
}

func determineAssetType(name string) metadata.ResourceType {
	switch filepath.Ext(name) {
	case ".glsl":
		return metadata.ResourceTypeShader
	case ".png", ".jpg", ".jpeg":
		return metadata.ResourceTypeImage
	default:
		return metadata.ResourceTypeNone
	}
}
