// Package redis connects the application to the Redis server that backs the
// shared tenant record cache (see pkg/tenant.NewRedisCache).
//
// Connect retries until the server is reachable or the configured timeout
// expires, so services can start before Redis does:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    log.Error("redis unavailable", slog.Any("error", err))
//	    os.Exit(1)
//	}
//	defer client.Close()
//
//	router := tenant.NewRouter(resolver, registry, pools,
//	    tenant.WithCache(tenant.NewRedisCache(client, ""), 30*time.Second))
package redis
