package main

import "flag"
import "fmt"
import "os"

import "github.com/neurlang/pino1d/config"
import "github.com/neurlang/pino1d/experiment"

func main() {
	configPath := flag.String("config_path", "configs/elastic_bar.yaml", "path to the YAML configuration")
	mode := flag.String("mode", "train", "train or test")
	logFile := flag.Bool("log", false, "append progress lines to a log file")
	resume := flag.Bool("resume", false, "resume training from the final checkpoint")
	dstmodel := flag.String("dstmodel", "", "model destination .json.zlib file")
	srcmodel := flag.String("srcmodel", "", "model .json.zlib file to test instead of the checkpoint")
	flag.Bool("pgo", false, "enable pgo")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		println(err.Error())
		os.Exit(2)
	}

	switch *mode {
	case "train":
		err = experiment.Train(conf, experiment.ElasticBar, experiment.Flags{Log: *logFile, Resume: *resume, DstModel: *dstmodel})
		if err == nil {
			fmt.Println("Done")
		}
	case "test":
		var mean, stderr float64
		mean, stderr, err = experiment.Test(conf, experiment.ElasticBar, experiment.Flags{SrcModel: *srcmodel})
		if err == nil {
			fmt.Printf("==Averaged relative L2 error mean: %v, std error: %v==\n", mean, stderr)
		}
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		println(err.Error())
		os.Exit(1)
	}
}
