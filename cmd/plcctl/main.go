// plcctl is a command-line client for the PLC decentralized
// identifier method: it creates, updates, rotates keys for, and
// deactivates did:plc:* identifiers against a PLC directory, and
// persists the resulting key material to a local JSON key store.
//
// Usage:
//
//	./plcctl create -handle my-plugin.example -config plcctl.json
//	./plcctl update -did did:plc:xyz -handle renamed -config plcctl.json
//	./plcctl rotate -did did:plc:xyz -reason scheduled -config plcctl.json
//	./plcctl deactivate -did did:plc:xyz -config plcctl.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/primal-host/plc/plcconfig"
	"github.com/primal-host/plc/plcdirectory"
	"github.com/primal-host/plc/plckeystore"
	"github.com/primal-host/plc/plcmanager"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "create":
		runCreate(os.Args[2:])
	case "update":
		runUpdate(os.Args[2:])
	case "rotate":
		runRotate(os.Args[2:])
	case "deactivate":
		runDeactivate(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: plcctl <create|update|rotate|deactivate> [flags]")
}

func loadManager(configPath string) (*plcmanager.Manager, *plcconfig.Config) {
	cfg, err := plcconfig.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	directory := plcdirectory.NewHTTPDirectory(cfg.DirectoryURL)
	directory.Client.Timeout = cfg.RequestTimeout()
	store := plckeystore.NewJSONFileStore(cfg.KeyStorePath)
	return plcmanager.New(directory, store), cfg
}

func runCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	configPath := fs.String("config", "plcctl.json", "path to config file")
	handle := fs.String("handle", "", "optional at:// handle")
	endpoint := fs.String("endpoint", "", "optional AtprotoPersonalDataServer endpoint")
	fs.Parse(args)

	mgr, _ := loadManager(*configPath)
	result, err := mgr.Create(context.Background(), *handle, *endpoint)
	if err != nil {
		log.Fatalf("create failed: %v", err)
	}
	log.Printf("created %s", result.DID)
}

func runUpdate(args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	configPath := fs.String("config", "plcctl.json", "path to config file")
	did := fs.String("did", "", "did:plc:* to update")
	handle := fs.String("handle", "", "new at:// handle")
	endpoint := fs.String("endpoint", "", "new AtprotoPersonalDataServer endpoint")
	fs.Parse(args)

	if *did == "" {
		log.Fatal("update requires -did")
	}
	mgr, _ := loadManager(*configPath)

	var changes plcmanager.Changes
	if *handle != "" {
		changes.Handle = handle
	}
	if *endpoint != "" {
		changes.ServiceEndpoint = endpoint
	}

	if err := mgr.Update(context.Background(), *did, changes); err != nil {
		log.Fatalf("update failed: %v", err)
	}
	log.Printf("updated %s", *did)
}

func runRotate(args []string) {
	fs := flag.NewFlagSet("rotate", flag.ExitOnError)
	configPath := fs.String("config", "plcctl.json", "path to config file")
	did := fs.String("did", "", "did:plc:* to rotate keys for")
	reason := fs.String("reason", "", "optional rotation reason, recorded in metadata")
	fs.Parse(args)

	if *did == "" {
		log.Fatal("rotate requires -did")
	}
	mgr, _ := loadManager(*configPath)
	if err := mgr.RotateKeys(context.Background(), *did, *reason); err != nil {
		log.Fatalf("rotate failed: %v", err)
	}
	log.Printf("rotated keys for %s", *did)
}

func runDeactivate(args []string) {
	fs := flag.NewFlagSet("deactivate", flag.ExitOnError)
	configPath := fs.String("config", "plcctl.json", "path to config file")
	did := fs.String("did", "", "did:plc:* to deactivate")
	fs.Parse(args)

	if *did == "" {
		log.Fatal("deactivate requires -did")
	}
	mgr, _ := loadManager(*configPath)
	if err := mgr.Deactivate(context.Background(), *did); err != nil {
		log.Fatalf("deactivate failed: %v", err)
	}
	log.Printf("deactivated %s", *did)
}
