// Package all links every bundled engine. Import it for its side effects:
//
//	import _ "github.com/itsatony/go-glaze/engines/all"
package all

import (
	_ "github.com/itsatony/go-glaze/engines/django"
	_ "github.com/itsatony/go-glaze/engines/gotemplate"
	_ "github.com/itsatony/go-glaze/engines/graphql"
	_ "github.com/itsatony/go-glaze/engines/markdown/blackfriday"
	_ "github.com/itsatony/go-glaze/engines/markdown/goldmark"
	_ "github.com/itsatony/go-glaze/engines/str"
	_ "github.com/itsatony/go-glaze/engines/terminal"
	_ "github.com/itsatony/go-glaze/engines/xml"
)
