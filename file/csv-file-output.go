package file

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io/ioutil"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/relloyd/empetl/logger"
)

// CSVFileOutput is a Writer that outputs records to a single OS file, headed by the column names.
type CSVFileOutput struct {
	csvWriter       *csv.Writer
	log             logger.Logger
	directory       string // set to empty string if you want to use OS temp space with system generated directory
	fileName        string
	headerRecord    []string
	currentName     string
	file            *os.File
	fWriter         *bufio.Writer
	totalRowCount   int
	needNewCSVFile  bool
	needFileCleanup bool
}

// NewCSVFileOutput creates a new CSV file struct. Supply a valid directory or empty string to use a new temp dir.
// The file is created lazily by the first call to MustWriteToCSV or MustCreateFile.
func NewCSVFileOutput(log logger.Logger, outputDirectory string, fileName string) (*CSVFileOutput, error) {
	f := &CSVFileOutput{log: log, fileName: fileName, needNewCSVFile: true}
	if outputDirectory == "" {
		var err error
		f.directory, err = ioutil.TempDir("", "csv-output-")
		if err != nil {
			return nil, errors.Wrap(err, "error creating temp directory for CSV file")
		}
	} else {
		f.directory = outputDirectory
	}
	if f.fileName == "" {
		return nil, errors.New("missing CSV file name")
	}
	log.Debug("CSVFileOutput directory=", f.directory, "; fileName=", f.fileName)
	return f, nil
}

// SetHeader will store the supplied record for output at the top of the CSV file.
func (f *CSVFileOutput) SetHeader(record []string) {
	f.headerRecord = record
}

// GetFileName returns the full path of the output file.
func (f *CSVFileOutput) GetFileName() string {
	return path.Join(f.directory, f.fileName)
}

// GetDirectory returns the directory holding the output file.
func (f *CSVFileOutput) GetDirectory() string {
	return f.directory
}

// GetRowCount returns the number of data rows written, excluding the header.
func (f *CSVFileOutput) GetRowCount() int {
	return f.totalRowCount
}

// MustCreateFile creates the file and writes the header if that has not happened yet.
// Use it to produce a header-only file for an empty result set.
func (f *CSVFileOutput) MustCreateFile() (fileName string) {
	if f.needNewCSVFile {
		f.createNewCSVWriter()
		if f.headerRecord != nil {
			f.log.Trace("Writing file header: ", f.headerRecord)
			if err := f.csvWriter.Write(f.headerRecord); err != nil {
				f.log.Panic("Unable to write header to CSV file: ", err)
			}
		}
	}
	return f.currentName
}

// MustWriteToCSV writes record to the CSV file.
func (f *CSVFileOutput) MustWriteToCSV(record []string) {
	f.log.Trace("Writing record...", record)
	f.MustCreateFile()
	if err := f.csvWriter.Write(record); err != nil {
		f.log.Panic("Unable to write to CSV file: ", err)
	}
	f.totalRowCount++
}

// Cleanup can be deferred by the caller to flush the CSV Writer and close the OS file.
func (f *CSVFileOutput) Cleanup() {
	if !f.needFileCleanup {
		return
	}
	f.csvWriter.Flush()
	if err := f.csvWriter.Error(); err != nil {
		f.log.Panic("unable to flush CSV writer: ", err)
	}
	if err := f.fWriter.Flush(); err != nil {
		f.log.Panic(err)
	}
	if err := f.file.Close(); err != nil { // if the file didn't close OK...
		f.log.Panic("unable to close OS file: ", f.currentName, "; ", err)
	}
	f.needFileCleanup = false
}

// Remove deletes the output file and, when it was created by us, the temp directory.
func (f *CSVFileOutput) Remove(removeDirectory bool) error {
	f.Cleanup()
	if removeDirectory {
		return os.RemoveAll(f.directory)
	}
	if f.currentName == "" {
		return nil
	}
	return os.Remove(f.currentName)
}

func (f *CSVFileOutput) createNewCSVWriter() {
	f.currentName = f.GetFileName()
	f.log.Info("Creating new CSV file '", f.currentName, "'")
	var err error
	f.file, err = os.Create(f.currentName)
	if err != nil {
		f.log.Panic(fmt.Sprintf("Unable to create OS file with name: %v: %v", f.currentName, err))
	}
	f.fWriter = bufio.NewWriter(f.file)
	f.csvWriter = csv.NewWriter(f.fWriter)
	f.needFileCleanup = true
	f.needNewCSVFile = false
}
