package logo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/spoolprint/logging"
	"github.com/ByLCY/spoolprint/metrics"
)

// ErrNoLogo 表示该地址没有可用的 logo（不存在或最近一次加载失败）。
var ErrNoLogo = errors.New("logo: not available")

const (
	// DefaultCacheTTL 已加载图片的缓存时间。
	DefaultCacheTTL = 30 * time.Minute
	// maxLogoPx 解码后 logo 最长边的像素上限。
	maxLogoPx     = 1024
	maxLogoBytes  = 8 << 20
	manifestAsset = "manifest.json"
)

// fetchFunc 读取包内相对路径对应的原始字节。
type fetchFunc func(ctx context.Context, asset string) ([]byte, error)

// LoaderConfig 配置 logo 加载器。
type LoaderConfig struct {
	// BaseURL 为 HTTP 来源，例如 http://spoolman.local。与 Dir 二选一，Dir 优先。
	BaseURL string
	// Dir 为本地 logo 包目录（包含 print/、web/ 与 manifest.json）。
	Dir      string
	CacheTTL time.Duration
	// NegativeTTL 为加载失败结果的缓存时间，缺省为 CacheTTL 的 1/10。
	NegativeTTL time.Duration
	Timeout     time.Duration
	Client      *http.Client
	Logger      *zap.Logger
}

// Loader 按地址加载并缓存 logo 图片；失败结果会短期缓存，避免反复请求。
type Loader struct {
	fetch   fetchFunc
	images  *cache.Cache
	misses  *cache.Cache
	timeout time.Duration
	logger  *zap.Logger
}

// NewLoader 根据配置创建 HTTP 或目录来源的加载器。
func NewLoader(cfg LoaderConfig) (*Loader, error) {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.NegativeTTL <= 0 {
		cfg.NegativeTTL = cfg.CacheTTL / 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	l := &Loader{
		images:  cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		misses:  cache.New(cfg.NegativeTTL, cfg.NegativeTTL*2),
		timeout: cfg.Timeout,
		logger:  logging.OrNop(cfg.Logger).Named("logo"),
	}
	switch {
	case cfg.Dir != "":
		l.fetch = dirFetcher(cfg.Dir)
	case cfg.BaseURL != "":
		client := cfg.Client
		if client == nil {
			client = &http.Client{Timeout: cfg.Timeout}
		}
		l.fetch = httpFetcher(client, cfg.BaseURL)
	default:
		return nil, errors.New("logo: 需要 BaseURL 或 Dir")
	}
	return l, nil
}

// Load 加载并解码 url 指向的 logo。
func (l *Loader) Load(url string) (image.Image, error) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	return l.LoadContext(ctx, url)
}

// LoadContext 与 Load 相同，但使用调用方的 ctx。
func (l *Loader) LoadContext(ctx context.Context, url string) (image.Image, error) {
	asset, ok := assetPath(url)
	if !ok {
		return nil, fmt.Errorf("%w: 无效地址 %q", ErrNoLogo, url)
	}
	if cached, found := l.images.Get(asset); found {
		if img, ok := cached.(image.Image); ok {
			metrics.LogoLookups.WithLabelValues("hit").Inc()
			return img, nil
		}
	}
	if _, found := l.misses.Get(asset); found {
		metrics.LogoLookups.WithLabelValues("miss").Inc()
		return nil, ErrNoLogo
	}

	data, err := l.fetch(ctx, asset)
	if err != nil {
		l.remember(asset, err)
		return nil, fmt.Errorf("%w: %s: %v", ErrNoLogo, asset, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		l.remember(asset, err)
		return nil, fmt.Errorf("%w: 解码 %s 失败: %v", ErrNoLogo, asset, err)
	}
	img = Fit(img, maxLogoPx)
	l.images.Set(asset, img, cache.DefaultExpiration)
	metrics.LogoLookups.WithLabelValues("loaded").Inc()
	l.logger.Debug("logo loaded", zap.String("asset", asset), zap.Int("bytes", len(data)))
	return img, nil
}

func (l *Loader) remember(asset string, err error) {
	l.misses.Set(asset, struct{}{}, cache.DefaultExpiration)
	result := "error"
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, errNotFound) {
		result = "miss"
	}
	metrics.LogoLookups.WithLabelValues(result).Inc()
	l.logger.Debug("logo unavailable", zap.String("asset", asset), zap.Error(err))
}

// Manifest 读取 logo 包的 manifest.json。
func (l *Loader) Manifest(ctx context.Context) (*Manifest, error) {
	data, err := l.fetch(ctx, manifestAsset)
	if err != nil {
		return nil, fmt.Errorf("读取 logo manifest 失败: %w", err)
	}
	return ParseManifest(bytes.NewReader(data))
}

var errNotFound = errors.New("not found")

func httpFetcher(client *http.Client, baseURL string) fetchFunc {
	base := strings.TrimRight(baseURL, "/") + AssetPrefix
	return func(ctx context.Context, asset string) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+asset, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, errNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
	}
}

func dirFetcher(dir string) fetchFunc {
	return func(_ context.Context, asset string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, filepath.FromSlash(asset)))
	}
}
