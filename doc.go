/*
Package mugshot captures an acceptable portrait from a live video stream. Each frame is scanned
for faces on a cheap, downscaled copy while the landmark regression and the final crop operate on
the full resolution source. A frame qualifies when exactly one well centered, levelled and
sufficiently large face fits a 4:3 portrait crop; the capture commits once enough consecutive
frames qualify.

The package provides a command line interface. To check the supported commands type:

	$ mugshot --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"

		"github.com/esimov/mugshot"
		"github.com/esimov/mugshot/config"
		"github.com/esimov/mugshot/detector"
		"github.com/esimov/mugshot/videoio"
	)

	func main() {
		assets, _ := config.LoadAssets("models/assets.json")
		pool := mugshot.NewPool(func() (mugshot.Detector, error) {
			return detector.NewPigo(assets, detector.DefaultOptions())
		})
		defer pool.Close()

		src, _ := videoio.NewDirSource("frames")
		out := make([]byte, 480*640*3)

		opts := mugshot.DefaultOptions()
		if code := mugshot.TakeMugshot(src, videoio.NopSink{}, opts, pool, out); code != mugshot.ResultSuccess {
			fmt.Printf("no mugshot: %v", code)
		}
	}
*/
package mugshot
