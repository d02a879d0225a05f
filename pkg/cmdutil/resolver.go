package cmdutil

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/alecthomas/kong"
	"golang.org/x/term"
)

// ResolveWriteConfirmation returns a kong.Resolver that interactively
// confirms a flag tagged `type:"confirm"` before a destructive write
// proceeds: prompt if unset, describe the flag, and gate on a typed
// "yes" from the controlling terminal.
func ResolveWriteConfirmation() kong.Resolver {
	return kong.ResolverFunc(func(ctx *kong.Context, parent *kong.Path, flag *kong.Flag) (interface{}, error) {
		if flag.Tag.Type != "confirm" || flag.Value.Set && !flag.Value.Target.IsZero() {
			return nil, nil
		}

		if flag.Target.Kind() != reflect.Bool {
			return nil, fmt.Errorf(`'confirm' type must be applied to a bool not %s`, flag.Target.Type())
		}

		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, fmt.Errorf("flag `%s` requires an explicit value when stdin is not a terminal", flag.ShortSummary())
		}

		fmt.Printf("No value has been provided for flag `%s`.\n", flag.ShortSummary())
		if flag.Help != "" {
			fmt.Println("Description: " + flag.Help)
		}

		fmt.Print(`Type "yes" to continue: `)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("confirmation could not be read: %v", err)
		}
		return strings.TrimSpace(line) == "yes", nil
	})
}
