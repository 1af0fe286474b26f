package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/wsecho/internal/discovery"
)

var scanTimeout int

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for echo servers on the network",
	Long: `Scan for wsecho servers using mDNS/DNS-SD discovery.

Only servers started with --advertise announce themselves.`,
	Example: `  # Scan for 5 seconds (default)
  wsecho-probe scan

  # Longer scan for busy networks
  wsecho-probe scan --timeout 15`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", int(discovery.DefaultScanTimeout/time.Second), "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for echo servers (timeout: %ds)...\n\n", scanTimeout)

	services, err := discovery.Scan(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(services) == 0 {
		fmt.Println("No servers found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Start the server with --advertise")
		fmt.Println("  - Check that multicast traffic is allowed on this network")
		fmt.Println("  - Try increasing --timeout")
		return nil
	}

	fmt.Printf("Found %d server(s):\n\n", len(services))
	for i, svc := range services {
		fmt.Printf("%d. %s\n", i+1, svc.Instance)
		fmt.Printf("   URL:     %s\n", svc.URL())
		if codec := svc.Codec(); codec != "" {
			fmt.Printf("   Codec:   %s\n", codec)
		}
		if v := svc.GetMetadata("version"); v != "" {
			fmt.Printf("   Version: %s\n", v)
		}
		fmt.Println()
	}

	fmt.Println("Use 'wsecho-probe probe <url>' to check a server")
	return nil
}
