package script

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/golang/groupcache/lru"
	"go.uber.org/zap"
)

// DefaultCacheSize bounds the compiled script cache when no size is configured
const DefaultCacheSize = 256

// cacheKey identifies a compilation. Options are folded into a canonical
// sorted string so equal option maps share an entry.
type cacheKey struct {
	lang    string
	source  string
	options string
}

// Service compiles scripts with registered engines and caches the results
type Service struct {
	engines     map[string]Engine
	catalog     *Catalog
	defaultLang string
	logger      *zap.Logger

	mu    sync.Mutex
	cache *lru.Cache
}

// NewService creates a script service. cacheSize <= 0 selects DefaultCacheSize.
func NewService(cacheSize int, defaultLang string, catalog *Catalog, logger *zap.Logger) *Service {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if defaultLang == "" {
		defaultLang = LangMustache
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		engines:     make(map[string]Engine),
		catalog:     catalog,
		defaultLang: defaultLang,
		logger:      logger,
		cache:       lru.New(cacheSize),
	}
	s.cache.OnEvicted = func(key lru.Key, _ interface{}) {
		k := key.(cacheKey)
		s.logger.Debug("compiled script evicted", zap.String("lang", k.lang))
	}
	return s
}

// Register adds an engine, replacing any engine for the same language
func (s *Service) Register(engine Engine) {
	s.engines[engine.Lang()] = engine
	s.logger.Debug("script engine registered", zap.String("lang", engine.Lang()))
}

// Langs returns the registered languages in sorted order
func (s *Service) Langs() []string {
	langs := make([]string, 0, len(s.engines))
	for lang := range s.engines {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Catalog returns the stored script catalog, possibly nil
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Compile compiles a script, resolving stored scripts through the catalog.
// Identical compilations are served from the cache.
func (s *Service) Compile(script Script) (*CompiledScript, error) {
	script, err := s.resolve(script)
	if err != nil {
		return nil, err
	}

	engine, ok := s.engines[script.Lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLang, script.Lang)
	}

	key := cacheKey{lang: script.Lang, source: script.Source, options: canonicalOptions(script.Options)}

	// Check cache first
	s.mu.Lock()
	if cached, ok := s.cache.Get(key); ok {
		s.mu.Unlock()
		s.logger.Debug("compiled script cache hit", zap.String("lang", script.Lang))
		return cached.(*CompiledScript), nil
	}
	s.mu.Unlock()

	// Compile outside the lock
	name := script.ID
	if name == "" {
		name = "inline"
	}
	compiled, err := engine.Compile(name, script.Source, script.Options)
	if err != nil {
		return nil, err
	}
	cs := &CompiledScript{
		Name:     name,
		Lang:     script.Lang,
		Options:  script.Options,
		compiled: compiled,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check again in case another goroutine compiled it
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*CompiledScript), nil
	}
	s.cache.Add(key, cs)

	s.logger.Debug("script compiled",
		zap.String("lang", cs.Lang),
		zap.String("name", cs.Name),
		zap.Int("cache_size", s.cache.Len()),
	)
	return cs, nil
}

// Executable binds a compiled script to params
func (s *Service) Executable(compiled *CompiledScript, params interface{}) (ExecutableScript, error) {
	engine, ok := s.engines[compiled.Lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLang, compiled.Lang)
	}
	return engine.Executable(compiled, params), nil
}

// Run compiles, binds and runs a script
func (s *Service) Run(script Script, params interface{}) (interface{}, error) {
	compiled, err := s.Compile(script)
	if err != nil {
		return nil, err
	}
	exec, err := s.Executable(compiled, params)
	if err != nil {
		return nil, err
	}
	return exec.Run()
}

// CacheLen returns the number of cached compilations
func (s *Service) CacheLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// ClearCache drops every cached compilation
func (s *Service) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Clear()
}

// resolve fills in stored script source and the default language
func (s *Service) resolve(script Script) (Script, error) {
	if script.Stored() {
		stored, err := s.catalog.Get(script.ID)
		if err != nil {
			return Script{}, err
		}
		if script.Lang == "" {
			script.Lang = stored.Lang
		}
		script.Source = stored.Source
		script.Options = mergeOptions(stored.Options, script.Options)
	}
	if script.Lang == "" {
		script.Lang = s.defaultLang
	}
	return script, nil
}

// mergeOptions returns base overlaid with override
func mergeOptions(base, override map[string]string) map[string]string {
	if len(override) == 0 {
		return base
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

func canonicalOptions(options map[string]string) string {
	if len(options) == 0 {
		return ""
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(options[k])
		b.WriteByte(0)
	}
	return b.String()
}
