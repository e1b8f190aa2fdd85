package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/relloyd/empetl/logger"
)

var _ = Describe("Logger", func() {
	var (
		l         *logger.LoggerImpl
		logOutput *bytes.Buffer
	)

	readLine := func() map[string]interface{} {
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		return actual
	}

	BeforeEach(func() {
		l = logger.NewLogger("test-service", "debug", true)
		l.SetFormatterJSON()
		logOutput = bytes.NewBufferString("")
		l.SetOutput(logOutput)
	})

	It("Should have `test-service` as service name", func() {
		l.Info("Testing")
		Expect(readLine()["service"]).To(Equal("test-service"))
	})

	It("Should have info as log level", func() {
		l.Info("Testing")
		Expect(readLine()["level"]).To(Equal("info"))
	})

	It("Should have warn as log level", func() {
		l.Warn("Testing")
		Expect(readLine()["level"]).To(Equal("warning"))
	})

	It("Should have error as log level with a stack trace", func() {
		l.Error("Testing")
		actual := readLine()
		Expect(actual["level"]).To(Equal("error"))
		Expect(actual["stackTrace"]).ToNot(BeNil())
	})

	It("Should have `Testing` as msg", func() {
		l.Info("Testing")
		Expect(readLine()["msg"]).To(Equal("Testing"))
	})

	It("Should carry extra fields added by WithFields", func() {
		logger.WithFields(l, map[string]interface{}{"runId": "abc", "task": "extract_hr"}).Info("Testing")
		actual := readLine()
		Expect(actual["runId"]).To(Equal("abc"))
		Expect(actual["task"]).To(Equal("extract_hr"))
		Expect(actual["service"]).To(Equal("test-service"))
	})

	It("Should panic with a logrus entry", func() {
		Expect(func() { l.Panic("boom") }).To(Panic())
	})
})
