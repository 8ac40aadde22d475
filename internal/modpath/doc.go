// Package modpath maps between file-system paths and dotted Python module
// paths, bounded by the application root.
//
// It also implements source discovery: expanding target files/directories
// into the set of .py files to check, honoring the built-in ignore list
// (__pycache__, .mypy_cache, ...) and user-supplied gitignore-style
// patterns, and building the set of top-level local modules used to
// separate project imports from third-party ones.
package modpath
