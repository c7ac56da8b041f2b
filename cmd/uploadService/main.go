package main

import (
	"bitbucket.org/airenas/callsight/internal/app/upload"
	"github.com/labstack/gommon/color"
)

func main() {
	printBanner()
	upload.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
               ____
  _________ _/ / /
 / ___/ __ ` + "`" + `/ / /
/ /__/ /_/ / / /
\___/\__,_/_/_/
   _____ _       __    __
  / ___/(_)___ _/ /_  / /_
  \__ \/ / __ ` + "`" + `/ __ \/ __/
 ___/ / / /_/ / / / / /_
/____/_/\__, /_/ /_/\__/  v: %s
       /____/

upload service
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("bitbucket.org/airenas/callsight"))
}
