// Package pipe provides stream files over io.Reader and io.Writer for the
// standard streams.
//
//	c, err := wasi.New().
//	    WithStdin(pipe.FromString("input\n")).
//	    WithStdout(pipe.NewWritePipe(os.Stdout)).
//	    WithStderr(pipe.NewCapture()).
//	    Build()
//
// A pipe over an *os.File connected to a terminal reports itself as a
// character device and IsTTY returns true.
package pipe
