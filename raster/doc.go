// Package raster turns input files into page images for text detection.
//
// PDFs are rendered one page at a time with pdftoppm (poppler-utils) at
// Scale*72 DPI, so a Scale of 2 produces images at twice the native PDF
// point resolution. Raster images (PNG, JPEG, TIFF, BMP) are single-page
// documents upsampled by the same factor. Coordinates reported by a
// detector are therefore in scaled page pixels.
//
// Remote inputs can be downloaded first with [Fetch].
package raster
