package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/mmngreco/ine-go/src/ine"
	"github.com/mmngreco/ine-go/src/logger"
)

const (
	ckSeries    = "series_%s_%s_%s"
	ckFunctions = "functions_%s_%s"
	ckInput     = "input_%s_%s_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type seriesServiceImpl struct {
	clients map[ine.Language]INEClient
	cache   *cache.Cache
}

// NewSeriesService wraps one client per language. A nil cache disables caching.
func NewSeriesService(clients map[ine.Language]INEClient, resultCache *cache.Cache) SeriesService {
	return &seriesServiceImpl{
		clients: clients,
		cache:   resultCache,
	}
}

// NewClients builds one independently configured client per supported language.
func NewClients(opts ...ine.Option) (map[ine.Language]INEClient, error) {
	clients := make(map[ine.Language]INEClient, 2)
	for _, lang := range []ine.Language{ine.Spanish, ine.English} {
		c, err := ine.NewClient(append(opts, ine.WithLanguage(lang))...)
		if err != nil {
			return nil, fmt.Errorf("error creating INE client for %s: %w", lang, err)
		}
		clients[lang] = c
	}
	return clients, nil
}

func (s *seriesServiceImpl) client(lang ine.Language) (INEClient, error) {
	c, ok := s.clients[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ine.ErrInvalidLanguage, lang)
	}
	return c, nil
}

func (s *seriesServiceImpl) GetSeries(ctx context.Context, lang ine.Language, code string, q ine.Query) (*ine.SeriesResult, error) {
	c, err := s.client(lang)
	if err != nil {
		return nil, err
	}
	params, err := ine.Encode(q)
	if err != nil {
		return nil, err
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	key := fmt.Sprintf(ckSeries, lang, code, params.Encode())
	if cached, found := s.get(key); found {
		logger.FromContext(ctx).Debug("Series cache hit", "key", key)
		return cached.(*ine.SeriesResult), nil
	}

	start := time.Now()
	res, err := c.GetSeries(ctx, code, q)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Fetched series", "code", code, "language", lang, "records", res.Len(), "duration", time.Since(start))
	s.set(key, res)
	return res, nil
}

func (s *seriesServiceImpl) GetFunctions(ctx context.Context, lang ine.Language, function string) (*ine.Table, error) {
	c, err := s.client(lang)
	if err != nil {
		return nil, err
	}
	if function == "" {
		function = ine.FuncOperacionesDisponibles
	}

	key := fmt.Sprintf(ckFunctions, lang, function)
	if cached, found := s.get(key); found {
		logger.FromContext(ctx).Debug("Functions cache hit", "key", key)
		return cached.(*ine.Table), nil
	}

	table, err := c.GetFunctions(ctx, function)
	if err != nil {
		return nil, err
	}
	s.set(key, table)
	return table, nil
}

func (s *seriesServiceImpl) GetInput(ctx context.Context, lang ine.Language, input string, params url.Values) (any, error) {
	c, err := s.client(lang)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf(ckInput, lang, input, params.Encode())
	if cached, found := s.get(key); found {
		logger.FromContext(ctx).Debug("Input cache hit", "key", key)
		return cached, nil
	}

	v, err := c.GetInput(ctx, input, params)
	if err != nil {
		return nil, err
	}
	s.set(key, v)
	return v, nil
}

func (s *seriesServiceImpl) GetTables(ctx context.Context, lang ine.Language) (*ine.Table, error) {
	c, err := s.client(lang)
	if err != nil {
		return nil, err
	}
	return c.GetTables(ctx)
}

func (s *seriesServiceImpl) get(key string) (interface{}, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *seriesServiceImpl) set(key string, v interface{}) {
	if s.cache == nil {
		return
	}
	s.cache.Set(key, v, cache.DefaultExpiration)
}
