// Package preprocess prepares raster images for text recognition.
//
// The pipeline is fixed: convert to 8-bit grayscale, binarize with a global
// threshold chosen by Otsu's method, then smooth the binary image with a
// non-local-means filter. Color information is discarded by the first step.
//
// Every stage is a pure function of its input. Running the pipeline twice
// over the same image yields byte-identical output, which keeps recognition
// results reproducible.
//
//	gray, err := preprocess.Default().Run(img)
//	if err != nil {
//		return err
//	}
//	pngBytes, err := preprocess.EncodePNG(gray)
package preprocess
