package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/AxellH/tdrs/internal/config"
	"github.com/AxellH/tdrs/internal/discovery"
	"github.com/AxellH/tdrs/internal/hub"
	"github.com/AxellH/tdrs/internal/ledger"
	"github.com/AxellH/tdrs/internal/logging"
	"github.com/AxellH/tdrs/internal/netaddr"
	"github.com/AxellH/tdrs/internal/supervisor"
	"github.com/AxellH/tdrs/internal/transport"
)

var cfg config.Config

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "tdrs-hub",
		Short:         "chained publish/subscribe relay hub",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := root.Flags()
	flags.StringVar(&cfg.ReceiverListen, "receiver-listen", "", "receiver bind endpoint, e.g. tcp://*:5550")
	flags.StringVar(&cfg.PublisherListen, "publisher-listen", "", "publisher bind endpoint, e.g. tcp://*:5551")
	flags.StringArrayVar(&cfg.ChainLinks, "chain-link", nil, "static peer publisher endpoint to chain to (repeatable)")
	flags.BoolVar(&cfg.Discovery, "discovery", false, "enable group-membership discovery instead of static chain-links")
	flags.IntVar(&cfg.DiscoveryInterval, "discovery-interval", 1000, "discovery beacon interval in milliseconds")
	flags.StringVar(&cfg.DiscoveryInterface, "discovery-interface", "", "network interface used for discovery")
	flags.Uint16Var(&cfg.DiscoveryPort, "discovery-port", 5670, "discovery beacon UDP port")
	flags.StringVar(&cfg.DiscoveryKey, "discovery-key", "TDRS", "shared key gating discovery group membership")
	flags.StringVar(&cfg.LogLevel, "log-level", "info", "log level: trace, debug, info, warn, error")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	logging.Configure(cfg.LogLevel)
	log := logging.For("main")

	if err := cfg.Validate(); err != nil {
		return err
	}

	led := ledger.New()
	// Workers connect this endpoint with a REQUEST socket to re-inject
	// traffic (spec.md §4.4: "receiver ... with wildcards rewritten to
	// loopback"); a wildcard bind endpoint is never valid for an outbound
	// connect (§3), so the supervisor must hold the loopback form, not the
	// raw --receiver-listen bind endpoint.
	localReceiver, err := netaddr.RewriteForLocalString(cfg.ReceiverListen)
	if err != nil {
		return fmt.Errorf("tdrs-hub: rewrite receiver endpoint: %w", err)
	}
	sup := supervisor.New(localReceiver, supervisor.DefaultFactory(led, logging.For("supervisor")), logging.For("supervisor"))

	if !cfg.Discovery {
		if err := sup.SeedStaticLinks(cfg.ChainLinks); err != nil {
			return fmt.Errorf("tdrs-hub: seed chain-links: %w", err)
		}
	}

	h := hub.New(
		cfg.ReceiverListen, cfg.PublisherListen,
		sup, led, logging.For("hub"),
		transport.BindReplier, transport.BindPublisher,
	)

	var listener *discovery.Listener
	if cfg.Discovery {
		l, err := newDiscoveryListener(localReceiver)
		if err != nil {
			return fmt.Errorf("tdrs-hub: start discovery: %w", err)
		}
		listener = l
		go func() {
			if err := listener.Run(); err != nil {
				log.WithError(err).Error("discovery: listener stopped")
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("tdrs-hub: signal received, shutting down")
		if listener != nil {
			listener.Stop()
		}
		h.Shutdown()
	}()

	return h.Run()
}

// newDiscoveryListener wires a Gyre substrate into the discovery listener
// using the parsed flags. localReceiver is the hub's own receiver endpoint,
// already rewritten to loopback since a wildcard bind is never a valid
// outbound address (§3).
func newDiscoveryListener(localReceiver string) (*discovery.Listener, error) {
	pub, err := netaddr.Parse(cfg.PublisherListen)
	if err != nil {
		return nil, fmt.Errorf("discovery: publisher endpoint: %w", err)
	}
	rec, err := netaddr.Parse(cfg.ReceiverListen)
	if err != nil {
		return nil, fmt.Errorf("discovery: receiver endpoint: %w", err)
	}

	substrate, err := discovery.NewGyreSubstrate(discovery.GyreOptions{
		Interface: cfg.DiscoveryInterface,
		Port:      cfg.DiscoveryPort,
		Interval:  cfg.DiscoveryInterval,
	}, logging.For("discovery"))
	if err != nil {
		return nil, fmt.Errorf("discovery: new substrate: %w", err)
	}

	listenerCfg := discovery.Config{
		Group:    "TDRS",
		KeyHash:  netaddr.SHA1Hex([]byte(cfg.DiscoveryKey)),
		Pub:      pub,
		Receiver: rec,
	}
	return discovery.New(substrate, listenerCfg, transport.ConnectRequester, localReceiver, logging.For("discovery"))
}
