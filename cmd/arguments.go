package cmd

import (
	"fmt"
	"strings"

	"wagerbank/service"
)

// ParseArguments turns name=value pairs from the command line into operation arguments.
// Values stay strings; the operation decides how to read them.
func ParseArguments(pairs []string) (service.Arguments, error) {
	args := make(service.Arguments, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", pair)
		}
		if _, dup := args[name]; dup {
			return nil, fmt.Errorf("argument %q given twice", name)
		}
		args[name] = value
	}
	return args, nil
}
