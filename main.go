package main

import (
	"oss.terrastruct.com/util-go/xmain"

	"github.com/layoutqa/layoutqa/qacli"
)

func main() {
	xmain.Main(qacli.Run)
}
