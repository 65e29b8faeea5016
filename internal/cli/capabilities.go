package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gocavy/internal/capability"
)

// CapabilityInfo is the status of one optional tool.
type CapabilityInfo struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version"`
	URL       string `json:"url,omitempty"`
	Desc      string `json:"description,omitempty"`
}

// NewCapabilitiesCommand creates the capabilities command.
func NewCapabilitiesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capabilities [name...]",
		Short: "List the optional external tools and whether they are installed",
		Long: `List every optional capability gocavy knows about, where it was found
and the version it reports.

With names, only those capabilities are checked and the command fails if
any of them is unavailable.

Exit codes:
  0 - Listed (and every named capability is available)
  1 - A named capability is unavailable

Examples:
  gocavy capabilities
  gocavy capabilities cavy qasm-sampler`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapabilities(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runCapabilities(opts *RootOptions, names []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	reg := opts.capabilities()
	ctx := opts.commandContext(cmd)

	if len(names) > 0 {
		if err := reg.Require(names...); err != nil {
			return formatter.Fail(ExitFailure, "missing capability", err)
		}
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	infos := make([]CapabilityInfo, 0)
	for _, st := range reg.List() {
		if len(want) > 0 && !want[st.Spec.Name] {
			continue
		}
		infos = append(infos, CapabilityInfo{
			Name:      st.Spec.Name,
			Kind:      string(st.Spec.Kind),
			Available: st.Available,
			Path:      st.Path,
			Version:   reg.Version(ctx, st.Spec.Name),
			URL:       st.Spec.URL,
			Desc:      st.Spec.Desc,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	w := formatter.Writer
	for _, info := range infos {
		mark := okMark()
		if !info.Available {
			mark = failMark()
		}
		fmt.Fprintf(w, "%s %-18s %s\n", mark, info.Name, info.Version)
		if info.Available && info.Path != "" {
			fmt.Fprintf(w, "    %s\n", info.Path)
		}
		if !info.Available && info.Kind == string(capability.KindExecutable) && info.URL != "" {
			fmt.Fprintf(w, "    install: %s\n", info.URL)
		}
	}
	return nil
}
