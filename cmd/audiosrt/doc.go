// Package main hosts the audiosrt CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into single-file
// conversions, directory batches, persistent queue maintenance, dependency
// checks and configuration scaffolding. It centralizes configuration
// resolution and logger setup so subcommands only deal with flags and output.
//
// Keep this package lean: conversion behaviour lives in internal/convert and
// queue processing in internal/workflow. Commands here only wire and render.
package main
