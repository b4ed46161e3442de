package infra

import (
	"time"

	"github.com/hashicorp/consul/api"

	"github.com/fystack/trustcore/pkg/config"
	"github.com/fystack/trustcore/pkg/logger"
)

// ConsulKV is the slice of the Consul KV API the trust core consumes.
type ConsulKV interface {
	Put(kv *api.KVPair, options *api.WriteOptions) (*api.WriteMeta, error)
	Get(key string, options *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
	Delete(key string, options *api.WriteOptions) (*api.WriteMeta, error)
	List(prefix string, options *api.QueryOptions) (api.KVPairs, *api.QueryMeta, error)
}

func GetConsulConfig() *api.Config {
	cfg := config.GetConfig()

	clientConfig := api.DefaultConfig()
	consulCfg := cfg.Consul
	if consulCfg == nil {
		return clientConfig
	}

	if cfg.Environment == config.Production {
		clientConfig.Token = consulCfg.Token
		if consulCfg.Username != "" || consulCfg.Password != "" {
			clientConfig.HttpAuth = &api.HttpBasicAuth{
				Username: consulCfg.Username,
				Password: consulCfg.Password,
			}
		}
	}

	if consulCfg.Address != "" {
		clientConfig.Address = consulCfg.Address
	}
	return clientConfig
}

func GetConsulClient(environment string) *api.Client {
	cfg := GetConsulConfig()
	cfg.WaitTime = 10 * time.Second

	logger.Info("Consul config",
		"environment", environment,
		"address", cfg.Address,
		"wait_time", cfg.WaitTime,
	)

	client, err := api.NewClient(cfg)
	if err != nil {
		logger.Fatal("Failed to create consul client", err)
	}

	// Ping the Consul server to verify connectivity
	if _, err := client.Status().Leader(); err != nil {
		logger.Fatal("failed to connect to Consul", err)
	}

	return client
}
