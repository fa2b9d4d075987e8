package main

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// EventRecorder records login events.
type EventRecorder interface {
	RecordEvent(eventType string, fields map[string]interface{}) error
	Close() error
}

func parseFluentdAddress(address string) (*fluentdAddress, error) {
	if address == "" {
		return &fluentdAddress{}, nil
	}

	var network string
	if strings.HasPrefix(address, "tcp://") || strings.HasPrefix(address, "unix://") {
		u, err := url.Parse(address)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "unix" {
			return &fluentdAddress{network: u.Scheme, socketPath: u.Path}, nil
		}
		network = u.Scheme
		address = u.Host
	}

	host, portString, err := net.SplitHostPort(address)
	if err, ok := err.(*net.AddrError); ok && err.Err == "missing port in address" {
		return &fluentdAddress{network: network, host: address}, nil
	} else if err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(portString)
	if err != nil {
		return nil, err
	}

	return &fluentdAddress{network: network, host: host, port: port}, nil
}

type fluentdAddress struct {
	network    string
	host       string
	port       int
	socketPath string
}

// newEventRecorder returns a recorder that posts events to fluentd, or one
// that drops them if no address is configured.
func newEventRecorder(address, eventTag string) (EventRecorder, error) {
	if address == "" {
		return nopRecorder{}, nil
	}

	fluentdAddress, err := parseFluentdAddress(address)
	if err != nil {
		return nil, err
	}

	config := fluent.Config{
		FluentPort:       fluentdAddress.port,
		FluentHost:       fluentdAddress.host,
		FluentNetwork:    fluentdAddress.network,
		FluentSocketPath: fluentdAddress.socketPath,
		Async:            true,
	}
	f, err := fluent.New(config)
	if err != nil {
		return nil, err
	}

	return &fluentRecorder{fluent: f, eventTag: eventTag}, nil
}

type fluentRecorder struct {
	eventTag string
	fluent   *fluent.Fluent
}

// RecordEvent implements the EventRecorder interface.
func (r *fluentRecorder) RecordEvent(eventType string, fields map[string]interface{}) error {
	fields["type"] = eventType
	return r.fluent.Post(r.eventTag, fields)
}

// Close implements the EventRecorder interface.
func (r *fluentRecorder) Close() error {
	return r.fluent.Close()
}

type nopRecorder struct{}

func (nopRecorder) RecordEvent(string, map[string]interface{}) error { return nil }

func (nopRecorder) Close() error { return nil }
