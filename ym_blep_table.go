// ym_blep_table.go - Band-limited step kernel for the YM engine.

package sc68

// Generated by tools/blepgen.go.

const (
	BLEP_KERNEL_LEN = 192
	BLEP_ONE        = 65536
)

// blepStep is the integrated impulse response of a Kaiser (beta 9)
// windowed sinc at the 250 kHz generator rate, cut at 20 kHz and followed
// by a 15 kHz RC stage. It rises from 0 to BLEP_ONE; the half point is at
// index 82.
var blepStep = [BLEP_KERNEL_LEN]int32{
	0, 0, 0, 1, 1, 2, 1, 1, 0, -2, -4, -6,
	-6, -5, -1, 4, 10, 16, 18, 16, 8, -4, -19, -33,
	-41, -39, -26, -2, 29, 58, 79, 82, 63, 22, -34, -93,
	-137, -153, -129, -66, 28, 132, 219, 261, 240, 150, 3, -170,
	-326, -419, -414, -295, -77, 197, 462, 644, 679, 535, 222, -202,
	-640, -975, -1097, -935, -486, 180, 918, 1536, 1836, 1666, 967, -191,
	-1590, -2883, -3636, -3395, -1763, 1523, 6535, 13128, 20943, 29458, 38057, 46122,
	53121, 58679, 62625, 64998, 66021, 66045, 65478, 64714, 64066, 63733, 63786, 64180,
	64789, 65452, 66014, 66365, 66460, 66314, 66000, 65617, 65265, 65023, 64934, 64998,
	65178, 65417, 65650, 65823, 65905, 65889, 65793, 65652, 65504, 65386, 65320, 65315,
	65361, 65441, 65529, 65605, 65653, 65665, 65646, 65605, 65555, 65510, 65479, 65467,
	65473, 65492, 65517, 65541, 65559, 65568, 65568, 65560, 65549, 65538, 65529, 65523,
	65522, 65525, 65529, 65533, 65537, 65540, 65540, 65540, 65539, 65538, 65536, 65536,
	65535, 65535, 65535, 65535, 65536, 65536, 65536, 65536, 65536, 65536, 65536, 65536,
	65536, 65536, 65536, 65536, 65536, 65536, 65536, 65536, 65536, 65536, 65536, 65536,
	65536, 65536, 65536, 65536, 65536, 65536, 65536, 65536, 65536, 65536, 65536, 65536,
}
