package worldsim

func floorDiv(a, b int) int {
	// b > 0
	q := a / b
	r := a % b
	if r < 0 {
		q--
	}
	return q
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

var biomes = []string{
	"plains", "forest", "birch_forest", "dark_forest",
	"taiga", "savanna", "desert", "meadow",
}

// biomeAt picks a biome per square cell of the given size.
func biomeAt(seed int64, x, z, cell int) string {
	if cell <= 0 {
		cell = 1
	}
	h := hash2(seed, floorDiv(x, cell), floorDiv(z, cell))
	return biomes[h%uint64(len(biomes))]
}
