package config

import (
	"errors"
	"testing"
)

func validConfig() Config {
	return Config{
		ReceiverListen:  "tcp://*:5550",
		PublisherListen: "tcp://*:5551",
	}
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateMissingReceiver(t *testing.T) {
	c := validConfig()
	c.ReceiverListen = ""
	if err := c.Validate(); !errors.Is(err, ErrMissingFlag) {
		t.Fatalf("expected ErrMissingFlag, got %v", err)
	}
}

func TestValidateMissingPublisher(t *testing.T) {
	c := validConfig()
	c.PublisherListen = ""
	if err := c.Validate(); !errors.Is(err, ErrMissingFlag) {
		t.Fatalf("expected ErrMissingFlag, got %v", err)
	}
}

func TestValidateMutuallyExclusive(t *testing.T) {
	c := validConfig()
	c.Discovery = true
	c.ChainLinks = []string{"tcp://127.0.0.1:6001"}
	if err := c.Validate(); !errors.Is(err, ErrMutuallyExclusive) {
		t.Fatalf("expected ErrMutuallyExclusive, got %v", err)
	}
}

func TestValidateMalformedChainLink(t *testing.T) {
	c := validConfig()
	c.ChainLinks = []string{"not-an-endpoint"}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected malformed chain-link to fail validation")
	}
}
