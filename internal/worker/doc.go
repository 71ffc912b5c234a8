// Package worker implements the template worker lifecycle and Redis Streams integration.
//
// The worker reads render requests from a Redis Streams consumer group, loads
// the graph state of the execution, renders the node's template and publishes
// the result (tagged with a fresh render_id) to the result stream. Failures
// go to "<result stream>.errors"; state store and publish failures are
// requeued up to MAX_RETRIES times first.
//
// A render request message carries a JSON "data" field:
//
//	{
//	  "execution_id": "exec-42",
//	  "node_id": "build_query",
//	  "config": {
//	    "template": "{{#url}}{{topic}}{{/url}}",
//	    "output_key": "query"
//	  }
//	}
//
// Example usage:
//
//	cfg, _ := config.Load()
//	redisClient := redis.NewClient(&redis.Options{...})
//
//	worker := worker.NewWorker(cfg, redisClient, renderer, stateStore, logger)
//	if err := worker.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer worker.Stop()
//
// Health checks are provided via a separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8083, redisClient, logger)
//	healthServer.Start()
//	defer healthServer.Stop()
package worker
