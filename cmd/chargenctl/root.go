package main

import (
	"github.com/kasuganosora/chargen/config"
	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/kasuganosora/chargen/resource"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

// app carries the settings shared by every subcommand.
type app struct {
	v       *viper.Viper
	catalog *chargen.Catalog
}

// load reads the optional config file and builds the catalog once.
func (a *app) load() (*chargen.Catalog, error) {
	if a.catalog != nil {
		return a.catalog, nil
	}
	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		a.v.SetConfigType("yaml")
		if err := a.v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.FromViper(a.v)
	if err != nil {
		return nil, err
	}
	rules, err := resource.BuildRules(cfg.Rules)
	if err != nil {
		return nil, err
	}
	c, err := resource.LoadCatalog(cfg.Catalog.DataPath, rules)
	if err != nil {
		return nil, err
	}
	a.catalog = c
	return c, nil
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}
	cmd := &cobra.Command{
		Use:           "chargenctl",
		Short:         "Offline tools for priority-based character builds",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.String("config", "", "server config file (YAML) to take rules and catalog settings from")
	flags.String("catalog", "", "directory of catalog YAML files (default: built-in catalog)")
	flags.StringP("output", "o", "text", "output format: text, json or yaml")
	_ = a.v.BindPFlag("config", flags.Lookup("config"))
	_ = a.v.BindPFlag("catalog.data_path", flags.Lookup("catalog"))
	_ = a.v.BindPFlag("output", flags.Lookup("output"))

	cmd.AddCommand(
		newBudgetCmd(a),
		newValidateCmd(a),
		newPresetCmd(a),
		newCatalogCmd(a),
		newApplyCmd(a),
	)
	return cmd
}
