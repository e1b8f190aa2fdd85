package components

import (
	"bytes"
	"encoding/csv"
	"io"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/relloyd/empetl/aws/s3"
	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/stats"
	"github.com/relloyd/empetl/stream"
	"golang.org/x/net/context"
)

type S3CsvInputConfig struct {
	Log            logger.Logger
	Name           string
	Ctx            context.Context
	Client         s3.Getter // optional; built from the bucket details below if nil.
	BucketName     string
	BucketPrefix   string
	Region         string
	Key            string   // the CSV object to read.
	SortFields     []string // optional fields to sort the output by, compared as strings.
	StepWatcher    *stats.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewS3CsvInput reads a CSV object from S3 and outputs one record per data row.
// The first CSV row is the header and supplies the field names; all values are strings.
func NewS3CsvInput(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*S3CsvInputConfig)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.Key == "" {
		cfg.Log.Panic(cfg.Name, " error - missing S3 key.")
	}
	cfg.BucketName = strings.TrimPrefix(cfg.BucketName, "s3://")
	if cfg.Client == nil {
		if cfg.BucketName == "" {
			cfg.Log.Panic(cfg.Name, " error - missing source bucket name.")
		}
		if cfg.Region == "" {
			cfg.Log.Panic(cfg.Name, " error - missing AWS region.")
		}
	}
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
		if cfg.StepWatcher != nil { // if we have been given a stepWatcher struct that can watch our rowCount...
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		client := cfg.Client
		if client == nil {
			client = s3.NewBasicClient(cfg.BucketName, cfg.Region, cfg.BucketPrefix)
		}
		b, err := client.Get(contextOrBackground(cfg.Ctx), cfg.Key)
		if err != nil {
			cfg.Log.Panic(cfg.Name, " unable to read s3://", cfg.BucketName, "/", cfg.Key, ": ", err)
		}
		records, err := readCsvRecords(b)
		if err != nil {
			cfg.Log.Panic(cfg.Name, " unable to parse CSV s3://", cfg.BucketName, "/", cfg.Key, ": ", err)
		}
		if len(cfg.SortFields) > 0 {
			sortRecords(cfg.Log, records, cfg.SortFields)
		}
		cfg.Log.Info(cfg.Name, " read ", len(records), " rows from s3://", cfg.BucketName, "/", cfg.Key)
		for _, rec := range records {
			if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
		}
		close(outputChan) // we're done so close the channel we created.
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}

// readCsvRecords converts CSV content to records keyed by the header row.
// Empty content yields no records.
func readCsvRecords(b []byte) ([]stream.Record, error) {
	r := csv.NewReader(bytes.NewReader(b))
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "error reading CSV header")
	}
	retval := make([]stream.Record, 0)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "error reading CSV row %v", len(retval)+1)
		}
		rec := stream.NewRecord()
		for idx, name := range header {
			rec.SetData(name, row[idx])
		}
		retval = append(retval, rec)
	}
	return retval, nil
}

func sortRecords(log logger.Logger, records []stream.Record, fields []string) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, f := range fields {
			a := records[i].GetDataAsStringUseUtcTime(log, f)
			b := records[j].GetDataAsStringUseUtcTime(log, f)
			if a != b {
				return a < b
			}
		}
		return false
	})
}
