package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags ties config keys to command-line flags so a set flag wins over
// the config file and environment.
func bindFlags(lookup func(name string) *pflag.Flag, keys map[string]string) {
	for key, name := range keys {
		flag := lookup(name)
		if flag == nil {
			panic(fmt.Sprintf("flag --%s is not defined", name))
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			panic(err)
		}
	}
}
