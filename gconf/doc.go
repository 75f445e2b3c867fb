/*
Package gconf implements a configuration store intended to be used as a
global, in-database configuration.

Each extension owns a single configuration object stored under the "_c:"
prefix followed by the package name. Configuration is loaded from the
genesis file, under the "conf" key, and validated before it is written.
Once initialized it cannot be changed.
*/
package gconf
