// Package files finds and checks the input files of batch runs and the
// reports written by earlier runs.
//
// Discovery lists CSV and Excel files of a directory in name order.
// FileValidator checks that an input file exists, is a regular file and has
// content, and that an output directory can be written.
package files
