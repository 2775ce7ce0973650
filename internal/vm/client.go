package vm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rtm0/gribberish/internal/dataset"
)

// Client is a Victoria Metrics client capable of inserting dataset records
// via various protocols.
type Client struct {
	logger       *slog.Logger
	httpCli      *http.Client
	insertURL    string
	metricPrefix string
	names        []string
	recToText    recToTextFunc
}

var (
	metricPrefixRE = regexp.MustCompile("^[a-zA-Z0-9]+$")
	metricNameRE   = regexp.MustCompile("^[a-zA-Z0-9_]+$")
)

// NewClient creates a new VM client. names are the variable names in the
// order of dataset.Record.Values and become metric names prefixed with
// metricPrefix.
func NewClient(logger *slog.Logger, insertURL string, maxConns int, metricPrefix string, names []string) (*Client, error) {
	url, err := url.Parse(insertURL)
	if err != nil {
		return nil, err
	}

	if !metricPrefixRE.MatchString(metricPrefix) {
		return nil, fmt.Errorf("metric prefix %q does not match %q regular expression", metricPrefix, metricPrefixRE)
	}
	for _, name := range names {
		if !metricNameRE.MatchString(name) {
			return nil, fmt.Errorf("variable name %q does not match %q regular expression", name, metricNameRE)
		}
	}

	apiParams := apiParamsFuncs[url.Path]
	if apiParams == nil {
		return nil, fmt.Errorf("inserting into %q is not supported", insertURL)
	}
	q := url.Query()
	for name, value := range apiParams(metricPrefix, names) {
		q.Add(name, value)
	}
	url.RawQuery = q.Encode()

	recToText := recToTextFuncs[url.Path]
	if recToText == nil {
		return nil, fmt.Errorf("inserting into %q is not supported", insertURL)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		logger: logger,
		httpCli: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        maxConns,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: maxConns,
				MaxConnsPerHost:     maxConns,
			},
		},
		insertURL:    url.String(),
		metricPrefix: metricPrefix,
		names:        names,
		recToText:    recToText,
	}, nil
}

// Insert inserts dataset records into Victoria Metrics.
func (c *Client) Insert(ctx context.Context, recs []dataset.Record) error {
	body := c.recsToText(recs)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.insertURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	res, err := c.httpCli.Do(req)
	if err != nil {
		return fmt.Errorf("could not post data: %w", err)
	}
	defer res.Body.Close()
	if _, err := io.Copy(io.Discard, res.Body); err != nil {
		c.logger.Error("Failed to drain response body", "err", err)
	}
	if res.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return nil
}

type apiParamsFunc func(metricPrefix string, names []string) map[string]string

var apiParamsFuncs = map[string]apiParamsFunc{
	"/influx/write":        influxDBAPIParams,
	"/influx/api/v2/write": influxDBAPIParams,
	"/write":               influxDBAPIParams,
	"/api/v2/write":        influxDBAPIParams,
	"/api/v1/import/csv":   csvAPIParams,
}

func influxDBAPIParams(string, []string) map[string]string {
	return map[string]string{"precision": "ms"}
}

func csvAPIParams(metricPrefix string, names []string) map[string]string {
	cols := []string{"1:time:unix_ms", "2:label:la", "3:label:lo"}
	for i, name := range names {
		cols = append(cols, fmt.Sprintf("%d:metric:%s_%s", i+4, metricPrefix, name))
	}
	return map[string]string{"format": strings.Join(cols, ",")}
}

type recToTextFunc func(*strings.Builder, *dataset.Record, string, []string)

// recsToText converts multiple dataset records to text.
func (c *Client) recsToText(recs []dataset.Record) io.Reader {
	var sb strings.Builder
	for _, r := range recs {
		c.recToText(&sb, &r, c.metricPrefix, c.names)
	}
	return strings.NewReader(sb.String())
}

var recToTextFuncs = map[string]recToTextFunc{
	"/influx/write":        recToInfluxDB,
	"/influx/api/v2/write": recToInfluxDB,
	"/write":               recToInfluxDB,
	"/api/v2/write":        recToInfluxDB,
	"/api/v1/import/csv":   recToCSV,
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// recToInfluxDB converts a dataset record into an InfluxDB line protocol
// line and appends it to the string builder. Missing values are left out
// and a record without any value produces no line.
func recToInfluxDB(sb *strings.Builder, r *dataset.Record, metricPrefix string, names []string) {
	var fields []string
	for i, name := range names {
		if math.IsNaN(r.Values[i]) {
			continue
		}
		fields = append(fields, name+"="+formatValue(r.Values[i]))
	}
	if len(fields) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s,la=%.2f,lo=%.2f %s %d\n", metricPrefix, r.Latitude, r.Longitude, strings.Join(fields, ","), r.Timestamp)
}

// recToCSV converts a dataset record into a CSV record and appends it to the
// string builder. Missing values are written as empty columns.
func recToCSV(sb *strings.Builder, r *dataset.Record, _ string, _ []string) {
	fmt.Fprintf(sb, "%d,%.2f,%.2f", r.Timestamp, r.Latitude, r.Longitude)
	for _, v := range r.Values {
		sb.WriteByte(',')
		if !math.IsNaN(v) {
			sb.WriteString(formatValue(v))
		}
	}
	sb.WriteByte('\n')
}
