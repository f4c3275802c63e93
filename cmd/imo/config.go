package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/imo/internal/adapter"
	"github.com/mmcdole/imo/internal/domain"
	"github.com/mmcdole/imo/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := adapter.SaveConfig(cfg)
		if err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("✓ Configuration saved to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("server.url:      %s\n", cfg.Server.URL)
		fmt.Printf("server.timeout:  %s\n", cfg.Server.Timeout)
		fmt.Printf("remote.kind:     %s\n", cfg.Remote.Kind)
		if cfg.Remote.Kind == adapter.RemoteRedis {
			fmt.Printf("remote.redis:    %s key=%s db=%d\n", cfg.Remote.Redis.Address, cfg.Remote.Redis.Key, cfg.Remote.Redis.DB)
		}
		fmt.Printf("cache.dir:       %s\n", cfg.Cache.Dir)
		fmt.Printf("query:           %s\n", cfg.Query.Values().Encode())
		fmt.Printf("logging.file:    %s\n", cfg.Logging.File)
		if cfg.Metrics.Listen != "" {
			fmt.Printf("metrics.listen:  %s\n", cfg.Metrics.Listen)
		}
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local cache",
}

var cacheClearUI bool

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached marks and saved toggles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cacheClearUI {
			slots, err := store.NewSlotStore(cfg.Cache.Dir, cfg.Server.URL)
			if err != nil {
				return fmt.Errorf("failed to open cache: %w", err)
			}
			defer slots.Close()
			if err := slots.Delete(domain.SlotUI); err != nil {
				return err
			}
			fmt.Println("✓ Saved toggles cleared")
			return nil
		}
		if err := adapter.ClearCache(cfg.Cache.Dir); err != nil {
			return err
		}
		fmt.Println("✓ Cache cleared")
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List cached slots for the configured server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		slots, err := store.NewSlotStore(cfg.Cache.Dir, cfg.Server.URL)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer slots.Close()

		names := slots.Slots()
		if len(names) == 0 {
			fmt.Println("(empty)")
			return nil
		}
		for _, name := range names {
			data, _ := slots.Load(name)
			fmt.Printf("%-10s %d bytes\n", name, len(data))
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	// No config needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("imo %s\n", Version)
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	cacheClearCmd.Flags().BoolVar(&cacheClearUI, "ui", false, "Only forget the saved dashboard toggles")
	cacheCmd.AddCommand(cacheShowCmd, cacheClearCmd)
	rootCmd.AddCommand(configCmd, cacheCmd, versionCmd)
}
