// pkg/cli/cli.go
//
// Flag helpers shared by the stretchsync verb commands. Flags are declared
// on cobra commands and bound into viper so that file, environment and flag
// values resolve through one configuration instance.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AddStringFlag adds a string flag and optionally marks as required.
// Env/Config are handled by Viper if you call BindFlagsToViper.
func AddStringFlag(cmd *cobra.Command, name, shorthand, def, help string, required bool) {
	cmd.Flags().StringP(name, shorthand, def, help)
	if required {
		if err := cmd.MarkFlagRequired(name); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to mark flag %s as required: %v\n", name, err)
		}
	}
}

// AddBoolFlag adds a boolean flag.
func AddBoolFlag(cmd *cobra.Command, name, shorthand string, def bool, help string) {
	cmd.Flags().BoolP(name, shorthand, def, help)
}

// AddStringArrayFlag adds a repeatable string flag. Values are not split on
// commas so "key=a,b" stays one value.
func AddStringArrayFlag(cmd *cobra.Command, name, shorthand string, help string) {
	cmd.Flags().StringArrayP(name, shorthand, nil, help)
}

// BindFlagsToViper binds all persistent and local flags on a command to a
// Viper instance, using the flag name as the key.
func BindFlagsToViper(cmd *cobra.Command, v *viper.Viper) error {
	var result error
	bind := func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			result = multierror.Append(result, err)
		}
	}
	cmd.Flags().VisitAll(bind)
	cmd.PersistentFlags().VisitAll(bind)
	return result
}

// SetViperEnvPrefix lets Viper read env with prefix. Nested keys map to
// underscores, so http.timeout reads PREFIX_HTTP_TIMEOUT.
func SetViperEnvPrefix(v *viper.Viper, prefix string) {
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// GetRequiredString returns a non-empty string flag.
func GetRequiredString(cmd *cobra.Command, name string) (string, error) {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", cerr.Wrapf(err, "flag error for --%s", name)
	}
	if val == "" {
		return "", cerr.Newf("required flag --%s is empty", name)
	}
	return val, nil
}

// ParseKeyValues converts "key=value" pairs into a map. Values that parse
// as JSON (numbers, booleans, null, objects, arrays) keep their JSON type;
// anything else is a string. A key given more than once collects its values
// into a []any in order. Every malformed pair is reported.
func ParseKeyValues(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	var result error
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			result = multierror.Append(result, cerr.Newf("invalid pair %q: want key=value", pair))
			continue
		}

		value := parseValue(raw)
		switch existing := out[key].(type) {
		case nil:
			if _, seen := out[key]; seen {
				out[key] = repeated{nil, value}
			} else {
				out[key] = value
			}
		case repeated:
			out[key] = append(existing, value)
		default:
			out[key] = repeated{existing, value}
		}
	}
	if result != nil {
		return nil, result
	}
	for k, v := range out {
		if r, ok := v.(repeated); ok {
			out[k] = []any(r)
		}
	}
	return out, nil
}

// repeated marks values collected from a repeated key, so a JSON array
// value is not mistaken for one.
type repeated []any

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
