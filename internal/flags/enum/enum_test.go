package enum_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/resolution/internal/flags/enum"
)

func TestEnum(t *testing.T) {
	r := require.New(t)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	enum.VarP(flags, "output", "o", []string{"table", "json"}, "output format")

	v, err := enum.Get(flags, "output")
	r.NoError(err)
	r.Equal("table", v)

	r.NoError(flags.Parse([]string{"-o", "json"}))
	v, err = enum.Get(flags, "output")
	r.NoError(err)
	r.Equal("json", v)

	r.ErrorContains(flags.Parse([]string{"--output", "xml"}), "must be one of table, json")

	flags.String("plain", "", "")
	_, err = enum.Get(flags, "plain")
	r.ErrorContains(err, "not an enum flag")
	_, err = enum.Get(flags, "absent")
	r.ErrorContains(err, "not defined")
}
