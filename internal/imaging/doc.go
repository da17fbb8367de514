// Package imaging turns source images into stippling input.
//
// It decodes images (PNG, JPEG, GIF, BMP, TIFF, WebP) through a thread-safe
// cache, applies EXIF orientation, and derives the two fields the stipple
// engine consumes: a density field where dark pixels carry high weight, and
// a color field holding the source RGB values.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based with (0,0) at the
// top-left corner. For regions, (x1,y1) is inclusive and (x2,y2) is
// exclusive.
//
// # Preparation Pipeline
//
// FieldsFromImage runs these steps in order:
//
//  1. Crop to FieldOptions.Region, if set.
//  2. Downsize so the longer side fits FieldOptions.MaxSize.
//  3. Composite onto white, so transparent pixels receive no dots.
//  4. Apply gamma, contrast and Gaussian blur to a tone copy.
//  5. Convert the tone copy to luminance (BT.601 luma or CIE L*) and map it
//     to density as 1 - luminance, or luminance when inverted.
//
// Colors are read from the result of step 3, so tone adjustments never change
// dot colors.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Field derivation is
// stateless and can run concurrently on different images.
package imaging
