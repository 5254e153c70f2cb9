/*
Package gamedata loads and saves a whole project of schema-described
archives.

# Quick Start

	cfg, err := gamedata.LoadConfig("binkit.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	p, err := gamedata.OpenDir(cfg, nil)
	if err != nil {
	    log.Fatal(err)
	}
	stats, err := p.Load(ctx)

# Two-Phase Loading

Load reads every store first and only then resolves references, so a
record in one store may refer to a table declared in a store read later.
Resolution happens once per Load call over everything read by that call.

# Collaborators

Bytes come from a Source and go to a Sink. A store's schema binding may
name a Codec that unwraps its container before parsing; Identity is used
when none is named. Message text is served by a TextTable.
*/
package gamedata
