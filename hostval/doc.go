// Package hostval defines the dynamically typed host value model.
//
// The host side of a conversion sees one integer kind (int32), one
// floating kind (float64), one wide 64-bit integer kind, strings, raw
// bytes, lists, and labeled-integer factors. Each numeric kind reserves
// a missing-value sentinel: NAInt32, NAInt64, and NaN for floats.
//
// Value is a closed tagged variant: conversion code switches
// exhaustively over Kind, so a new kind shows up as a missing case in
// every dispatch site rather than as a silent fallthrough.
package hostval
