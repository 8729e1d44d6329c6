// Package cache implementa la caché de resúmenes de stock sobre Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/pkg/config"
)

var _ inventory.SummaryCache = (*RedisSummaryCache)(nil)

// SummaryKeyPrefix prefijo del hash por producto; cada campo es una ventana de fechas.
const SummaryKeyPrefix = "inventory:summary:"

// GenerationKeyPrefix prefijo del contador que Invalidate incrementa por producto.
const GenerationKeyPrefix = "inventory:summary-gen:"

// SummaryKey clave del hash de resúmenes de un producto.
func SummaryKey(productID int64) string {
	return SummaryKeyPrefix + strconv.FormatInt(productID, 10)
}

// GenerationKey clave del contador de generación de un producto.
func GenerationKey(productID int64) string {
	return GenerationKeyPrefix + strconv.FormatInt(productID, 10)
}

// setIfGeneration escribe el campo solo si la generación no cambió desde que se leyó.
// KEYS[1]=hash, KEYS[2]=generación; ARGV: generación esperada, ventana, valor, TTL en ms.
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[2], ARGV[3])
if tonumber(ARGV[4]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[4])
end
return 1
`)

// RedisSummaryCache guarda un hash por producto para poder invalidar todas sus ventanas con un DEL.
type RedisSummaryCache struct {
	rdb redis.Cmdable
	ttl time.Duration
	log zerolog.Logger
}

// NewRedisSummaryCache construye la caché. ttl <= 0 deja las entradas sin expiración.
func NewRedisSummaryCache(rdb redis.Cmdable, ttl time.Duration, log zerolog.Logger) *RedisSummaryCache {
	return &RedisSummaryCache{rdb: rdb, ttl: ttl, log: log}
}

// NewClient abre el cliente Redis y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Generation devuelve la generación actual del producto (0 si nunca se invalidó).
func (c *RedisSummaryCache) Generation(ctx context.Context, productID int64) (int64, error) {
	gen, err := c.rdb.Get(ctx, GenerationKey(productID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		c.log.Warn().Err(err).Int64("product_id", productID).Msg("redis GET de generación falló; se omite la caché")
		return 0, fmt.Errorf("cache generation: %w", err)
	}
	return gen, nil
}

// GetSummary devuelve (nil, nil) si no hay entrada o si el valor guardado no se puede decodificar.
func (c *RedisSummaryCache) GetSummary(ctx context.Context, productID int64, window string) (*dto.StockSummaryResponse, error) {
	raw, err := c.rdb.HGet(ctx, SummaryKey(productID), window).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.log.Warn().Err(err).Int64("product_id", productID).Msg("redis HGET falló; se consulta la base")
		return nil, fmt.Errorf("cache get summary: %w", err)
	}
	var out dto.StockSummaryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn().Err(err).Int64("product_id", productID).Msg("entrada de caché corrupta")
		return nil, nil
	}
	return &out, nil
}

// SetSummary guarda el resumen de una ventana y renueva el TTL del hash, siempre que la generación
// del producto siga siendo generation. Si cambió, descarta el resumen sin error.
func (c *RedisSummaryCache) SetSummary(ctx context.Context, productID int64, window string, generation int64, summary *dto.StockSummaryResponse) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("cache encode summary: %w", err)
	}
	keys := []string{SummaryKey(productID), GenerationKey(productID)}
	stored, err := setIfGeneration.Run(ctx, c.rdb, keys, generation, window, data, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.log.Warn().Err(err).Int64("product_id", productID).Msg("redis HSET falló")
		return fmt.Errorf("cache set summary: %w", err)
	}
	if stored == 0 {
		c.log.Debug().Int64("product_id", productID).Int64("generation", generation).Msg("resumen descartado: el producto cambió durante el cálculo")
	}
	return nil
}

// Invalidate incrementa la generación y borra todos los resúmenes de los productos indicados.
func (c *RedisSummaryCache) Invalidate(ctx context.Context, productIDs ...int64) error {
	if len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(productIDs))
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range productIDs {
			pipe.Incr(ctx, GenerationKey(id))
			keys = append(keys, SummaryKey(id))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		c.log.Error().Err(err).Ints64("product_ids", productIDs).Msg("no se pudo invalidar la caché de resúmenes")
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
