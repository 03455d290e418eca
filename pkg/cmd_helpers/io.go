// pkg/cmd_helpers/io.go

package cmd_helpers

import (
	"encoding/json"
	"io"
	"os"

	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/cli"
	"github.com/CodeMonkeyCybersecurity/stretchsync/pkg/sync_err"
)

// Input flag names shared by the verbs.
const (
	FlagSet   = "set"
	FlagParam = "param"
)

// AddAttributeFlags adds the repeatable --set flag.
func AddAttributeFlags(cmd *cobra.Command) {
	cli.AddStringArrayFlag(cmd, FlagSet, "s", "Attribute to send as key=value; repeatable, JSON values keep their type")
}

// AddParamFlags adds the repeatable --param flag.
func AddParamFlags(cmd *cobra.Command) {
	cli.AddStringArrayFlag(cmd, FlagParam, "p", "Query parameter as key=value; repeat a key to send several values, e.g. -p :age=>21")
}

// Attributes parses --set.
func Attributes(cmd *cobra.Command) (map[string]any, error) {
	return pairsFlag(cmd, FlagSet)
}

// Params parses --param.
func Params(cmd *cobra.Command) (map[string]any, error) {
	return pairsFlag(cmd, FlagParam)
}

func pairsFlag(cmd *cobra.Command, name string) (map[string]any, error) {
	if cmd.Flags().Lookup(name) == nil {
		return nil, nil
	}
	pairs, err := cmd.Flags().GetStringArray(name)
	if err != nil {
		return nil, cerr.Wrapf(err, "flag error for --%s", name)
	}
	if len(pairs) == 0 {
		return nil, nil
	}
	values, err := cli.ParseKeyValues(pairs)
	if err != nil {
		return nil, sync_err.NewValidationError("invalid --"+name+" value: "+err.Error(),
			"Use key=value, for example --"+name+" name=Ryan")
	}
	return values, nil
}

// PrintJSON writes v as JSON, indented when w is a terminal.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return cerr.Wrap(err, "failed to write output")
	}
	return nil
}
