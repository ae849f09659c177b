package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/prism/internal/schema"
)

// Version is the build version, set with -ldflags "-X".
var Version = "dev"

// VersionInfo is the output of the version command.
type VersionInfo struct {
	Version       string `json:"version"`
	SchemaVersion int    `json:"schema_version"`
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("prism %s (schema v%d)", v.Version, v.SchemaVersion)
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build and schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.formatter(cmd).Success(VersionInfo{
				Version:       Version,
				SchemaVersion: schema.CurrentVersion,
			})
		},
	}
}
