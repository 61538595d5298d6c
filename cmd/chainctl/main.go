// Command chainctl is a thin entry point wiring the decoding, transport,
// and indexing packages for manual smoke-testing. It is deliberately
// minimal: a production CLI is an external collaborator, out of scope for
// this toolkit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chainkit/chainkit/pkg/chaincodec/batch"
	"github.com/chainkit/chainkit/pkg/chaincodec/evm"
	"github.com/chainkit/chainkit/pkg/chaincodec/registry"
	"github.com/chainkit/chainkit/pkg/chainrpc"
	"github.com/chainkit/chainkit/pkg/chainrpc/policy"
	"github.com/chainkit/chainkit/pkg/chainrpc/providers"
	"github.com/chainkit/chainkit/pkg/observability"
)

func main() {
	var (
		schemaPath   = flag.String("schema", "", "path to a CSDL schema file")
		providerYaml = flag.String("providers", "", "path to a provider pool config file")
		chainSlug    = flag.String("chain", "ethereum", "chain slug to decode for")
	)
	flag.Parse()

	logger := observability.NewComponentLogger("CHAINCTL")

	reg := registry.New()
	if *schemaPath != "" {
		doc, err := os.ReadFile(*schemaPath)
		if err != nil {
			logger.Fatalf("read schema: %v", err)
		}
		schemas, err := registry.ParseCSDL(string(doc))
		if err != nil {
			logger.Fatalf("parse schema: %v", err)
		}
		for _, s := range schemas {
			if err := reg.Add(s); err != nil {
				logger.Fatalf("register schema %s: %v", s.Name, err)
			}
		}
		logger.Printf("loaded %d schema(s) from %s", len(schemas), *schemaPath)
	}

	if *providerYaml != "" {
		doc, err := os.ReadFile(*providerYaml)
		if err != nil {
			logger.Fatalf("read provider config: %v", err)
		}
		cfg, err := providers.Load(doc)
		if err != nil {
			logger.Fatalf("parse provider config: %v", err)
		}
		cfg.ApplyEnvOverrides("CHAINCTL")

		chainCfg, ok := cfg.ForChain(*chainSlug)
		if !ok {
			logger.Fatalf("no provider configuration for chain %q", *chainSlug)
		}

		metrics := observability.NewMetrics()
		rpcObserver := observability.NewRPCObserver(metrics)

		transports := make([]chainrpc.Transport, 0, len(chainCfg.Endpoints))
		for _, ep := range chainCfg.Endpoints {
			transports = append(transports, chainrpc.NewHttpTransport(chainrpc.HttpTransportConfig{
				Url:            ep.Url,
				RequestTimeout: ep.RequestTimeout,
				Retry:          policy.DefaultRetryConfig,
				Circuit:        policy.DefaultCircuitConfig,
				Metrics:        rpcObserver,
			}, logger))
		}
		pool := chainrpc.NewPool(transports, "eth_blockNumber", 30*time.Second, logger)
		defer pool.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if resp, err := pool.Send(ctx, chainrpc.NewRequest(chainrpc.NewIntId(1), "eth_blockNumber")); err != nil {
			logger.Printf("probe request failed: %v", err)
		} else {
			fmt.Printf("eth_blockNumber result: %s\n", string(resp.Result))
		}
	}

	decoder := evm.NewChainDecoder(reg, *chainSlug)
	engine := batch.NewEngine(0)
	engine.RegisterDecoder(*chainSlug, decoder)

	logger.Printf("chainctl ready: %d schema(s) registered for chain %q", reg.Len(), *chainSlug)
}
