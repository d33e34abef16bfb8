package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rms-insight-workers/internal/common/validation"
	"rms-insight-workers/pkg/registry"
)

func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the activity registry",
	}

	var path string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check that the registry parses and every input schema compiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			validator, err := validation.NewValidator(reg)
			if err != nil {
				return err
			}

			for _, activity := range reg.Activities {
				schema := "no input schema"
				if validator.HasSchema(activity.TaskType) {
					schema = "input schema ok"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-12s %s\n", activity.TaskType, activity.ImplementationStatus, schema)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registry %s: %d activities valid\n", reg.Version, len(reg.Activities))
			return nil
		},
	}
	validate.Flags().StringVar(&path, "path", "configs/activity-registry.json", "path to the registry file")

	cmd.AddCommand(validate)
	return cmd
}
