package main

import (
	"github.com/saylorsolutions/bootx/env"
)

const propertyPrefix = "on"

// demoProperties is bound from properties under the "on" prefix.
// Fields with invalid values keep their zero value.
type demoProperties struct {
	Name string
	Age  int
}

func newDemoProperties(e *env.Environment) *demoProperties {
	return &demoProperties{
		Name: e.Val(propertyPrefix+".name", ""),
		Age:  int(e.Int(propertyPrefix+".age", 0)),
	}
}

func buildEnvironment(configPath string, args []string) (*env.Environment, error) {
	sources := []env.PropertySource{
		env.FromArgs(args),
		env.FromOS(propertyPrefix),
	}
	if len(configPath) > 0 {
		file, err := env.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		sources = append(sources, file)
	}
	return env.New(sources...), nil
}
