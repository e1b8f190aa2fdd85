package components

import (
	"os"
	"path"
	"strings"
	"sync/atomic"

	"github.com/relloyd/empetl/aws/s3"
	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/stats"
	"github.com/relloyd/empetl/stream"
	"golang.org/x/net/context"
)

type CopyFilesToS3Config struct {
	Log               logger.Logger
	Name              string
	Ctx               context.Context
	InputChan         chan stream.Record // the input channel of rows containing files (with full paths) to copy/move to S3.
	FileNameChanField string             // name of the field in InputChan that contains the files to move.
	Client            s3.BufferPutter    // optional; built from the bucket details below if nil.
	BucketName        string
	BucketPrefix      string
	Region            string
	TargetKey         string // optional fixed key, overwritten on each copy. Empty means use the file's base name.
	RemoveInputFiles  bool   // true to delete the input files after successful copy to s3.
	StepWatcher       *stats.StepWatcher
	WaitCounter       ComponentWaiter
	PanicHandlerFn    PanicHandlerFunc
}

// NewCopyFilesToS3 copies os files to S3.
// Input rows are passed to outputChan with the S3 key and bucket added.
func NewCopyFilesToS3(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*CopyFilesToS3Config)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing chan input in call to NewCopyFilesToS3.")
	}
	if cfg.FileNameChanField == "" {
		cfg.FileNameChanField = Defaults.ChanField4CSVFileName
	}
	cfg.BucketName = strings.TrimPrefix(cfg.BucketName, "s3://")
	if cfg.Client == nil {
		if cfg.BucketName == "" {
			cfg.Log.Panic(cfg.Name, " error - missing target bucket name.")
		}
		if cfg.Region == "" {
			cfg.Log.Panic(cfg.Name, " error - missing AWS region.")
		}
	}
	cfg.Log.Debug(cfg.Name, ": RemoveInputFiles = ", cfg.RemoveInputFiles)
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	if cfg.WaitCounter != nil {
		cfg.WaitCounter.Add()
	}
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		if cfg.WaitCounter != nil {
			defer cfg.WaitCounter.Done()
		}
		cfg.Log.Info(cfg.Name, " is running")
		rowCount := int64(0)
		if cfg.StepWatcher != nil { // if we have been given a StepWatcher struct that can watch our rowCount and output channel length...
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		client := cfg.Client
		if client == nil {
			client = s3.NewBasicClient(cfg.BucketName, cfg.Region, cfg.BucketPrefix)
		}
		ctx := contextOrBackground(cfg.Ctx)
		for {
			select {
			case rec, ok := <-cfg.InputChan: // for each row of input...
				if !ok { // if the input channel was closed...
					cfg.InputChan = nil // disable this case.
				} else {
					atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
					fileFullPathName := rec.GetDataAsStringPreserveTimeZone(cfg.Log, cfg.FileNameChanField)
					if fileFullPathName == "" {
						cfg.Log.Debug(cfg.Name, " no file found in input channel - skipping.")
						continue
					}
					key := cfg.TargetKey
					if key == "" {
						_, key = path.Split(fileFullPathName)
					}
					mustCopyFileToS3(ctx, cfg, client, fileFullPathName, key)
					rec.SetData(Defaults.ChanField4S3Key, key)
					rec.SetData(Defaults.ChanField4BucketName, cfg.BucketName)
					cfg.Log.Debug(cfg.Name, " producing filename as a row onto the output channel: ", rec)
					if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK { // forward the record
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
				}
			case controlAction := <-controlChan: // if we received a shutdown request...
				sendNilControlResponse(controlAction)
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.InputChan == nil { // if all input rows were consumed...
				break
			}
		}
		close(outputChan) // we're done so close the channel we created.
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}

func mustCopyFileToS3(ctx context.Context, cfg *CopyFilesToS3Config, client s3.BufferPutter, fileFullPathName string, key string) {
	f, err := os.Open(fileFullPathName) // File implements io.ReadSeeker
	if err != nil {
		cfg.Log.Panic(cfg.Name, " error - unable to open file, ", fileFullPathName, ": ", err)
	}
	action := "moving"
	if !cfg.RemoveInputFiles {
		action = "copying"
	}
	cfg.Log.Info(cfg.Name, " ", action, " file '", fileFullPathName, "' to S3 bucket '", path.Join(cfg.BucketName, cfg.BucketPrefix), "' key '", key, "'")
	err = client.BufferPut(ctx, key, f)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		cfg.Log.Panic(cfg.Name, " unable to copy file ", fileFullPathName, " to S3: ", err)
	}
	if cfg.RemoveInputFiles { // if we are requested to move the file instead of just copy...
		if err := os.Remove(fileFullPathName); err != nil {
			cfg.Log.Panic(cfg.Name, " unable to remove OS file, ", fileFullPathName)
		}
		cfg.Log.Debug(cfg.Name, " removed file '", fileFullPathName, "'")
	}
}
