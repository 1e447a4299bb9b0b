package groups_test

import (
	"fmt"
	"log"

	"github.com/nodefold/nodefold/pkg/groups"
)

func ExampleNewLoader() {
	cfg, err := groups.NewLoader().LoadBytes([]byte(`
resolver: {
	default: "local"
	sources: local: {
		type: "file"
		path: "/etc/nodefold/groups.yaml"
	}
}`), "config.cue")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(cfg.Default)
	fmt.Println(cfg.Sources["local"].Path)
	// Output:
	// local
	// /etc/nodefold/groups.yaml
}
