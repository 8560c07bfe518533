// Package main provides the Mnemo ML Framework CLI.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/mnemo-ml/mnemo/internal/backend/cpu"
	"github.com/mnemo-ml/mnemo/internal/tensor"
)

const version = "v0.3.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Mnemo ML Framework %s\n", version)
			return
		case "info":
			printInfo()
			return
		}
	}

	fmt.Println("Mnemo ML Framework - Retention Networks for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  info       Show runtime and backend information")
	fmt.Println("")
	fmt.Println("See examples/retention and examples/textgen for usage.")
}

func printInfo() {
	fmt.Printf("Mnemo ML Framework %s\n", version)
	fmt.Printf("Go: %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Printf("CPUs: %d\n\n", runtime.NumCPU())

	backend := cpu.New()
	fmt.Println("Backends:")
	fmt.Printf("  %-8s available (device: %s)\n", backend.Name(), backend.Device())
	if runtime.GOOS == "windows" {
		fmt.Println("  webgpu   build with GOOS=windows and call webgpu.IsAvailable()")
	} else {
		fmt.Println("  webgpu   windows-only in this build")
	}

	fmt.Println("\nData types:")
	for _, dt := range []tensor.DataType{tensor.Float32, tensor.Float64, tensor.Int32, tensor.Int64} {
		fmt.Printf("  %-8s %d bytes\n", dt, dt.Size())
	}
}
